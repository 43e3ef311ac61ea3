package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"two", "SELECT A FROM T WHERE X = ? AND Y = ?", "SELECT A FROM T WHERE X = $1 AND Y = $2"},
		{"quoted literal kept", "SELECT '?' FROM T WHERE X = ?", "SELECT '?' FROM T WHERE X = $1"},
		{"concat operator", "SELECT DDD || TELEFONE FROM T WHERE ID = ?", "SELECT DDD || TELEFONE FROM T WHERE ID = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.in))
		})
	}
}

func TestValueRow(t *testing.T) {
	ts := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	row := valueRow{nil, "x", []byte("y"), int32(7), ts, "12", float64(3)}

	assert.Equal(t, 7, row.ColumnCount())
	assert.True(t, row.IsNull(0))
	assert.Equal(t, "", row.Text(0))
	assert.Equal(t, "x", row.Text(1))
	assert.Equal(t, "y", row.Text(2))
	assert.Equal(t, int64(7), row.Int64(3))
	assert.Equal(t, "2023-05-01 10:00:00", row.Text(4))
	assert.Equal(t, int64(12), row.Int64(5))
	assert.Equal(t, int64(3), row.Int64(6))
	assert.Equal(t, int64(0), row.Int64(0))
}
