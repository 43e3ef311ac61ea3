package domain

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dossier/pkg/domain-errors"
)

// completeCPF appends both check digits to a nine-digit base using the
// textbook formula, independent of checkDigit.
func completeCPF(base string) string {
	d := func(s string) int {
		sum := 0
		for i, ch := range s {
			sum += int(ch-'0') * (len(s) + 1 - i)
		}
		r := sum % 11
		if r < 2 {
			return 0
		}
		return 11 - r
	}
	first := d(base)
	withFirst := base + strconv.Itoa(first)
	return withFirst + strconv.Itoa(d(withFirst))
}

func TestParseCPF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CPF
		wantErr bool
	}{
		{"textbook valid", "11144477735", "11144477735", false},
		{"formatted", "111.444.777-35", "11144477735", false},
		{"surrounding whitespace", "  11144477735 ", "11144477735", false},
		{"wrong first check digit", "11144477745", "", true},
		{"wrong second check digit", "11144477736", "", true},
		{"too short", "1114447773", "", true},
		{"too long", "111444777350", "", true},
		{"letters", "1114447773a", "", true},
		{"empty", "", "", true},
		{"sql injection", "'; DROP TABLE x;--", "", true},
		{"inner space", "111 444 777 35", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCPF(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidCPF_RejectsIdenticalDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), CPFLength)
		assert.False(t, ValidCPF(s), s)
	}
}

// TestValidCPF_AcceptsExactlyMatchingCheckDigits walks a spread of bases and
// verifies that, for each, only the computed check-digit pair is accepted.
func TestValidCPF_AcceptsExactlyMatchingCheckDigits(t *testing.T) {
	for n := 1; n < 1_000_000_000; n += 7_919_113 {
		base := strconv.Itoa(n)
		base = strings.Repeat("0", 9-len(base)) + base
		valid := completeCPF(base)
		for dv := 0; dv < 100; dv++ {
			pair := strconv.Itoa(dv)
			if dv < 10 {
				pair = "0" + pair
			}
			candidate := base + pair
			allSame := strings.Count(candidate, candidate[:1]) == CPFLength
			want := candidate == valid && !allSame
			assert.Equal(t, want, ValidCPF(candidate), candidate)
		}
	}
}

func TestCPF_Rendering(t *testing.T) {
	c := CPF("11144477735")
	assert.Equal(t, "111.444.777-35", c.Formatted())
	assert.Equal(t, "111.***.***-35", c.Masked())
	assert.Len(t, c.Hash(), 64)
	assert.NotContains(t, c.Hash(), "11144477735")
}
