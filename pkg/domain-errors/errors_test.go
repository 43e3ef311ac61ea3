package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("disk gone")
	wrapped := fmt.Errorf("lookup: %w", Wrap(base, CodeUnavailable, "store unavailable"))

	assert.True(t, HasCode(wrapped, CodeUnavailable))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(base, CodeUnavailable))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, "store unavailable: disk gone", Wrap(base, CodeUnavailable, "store unavailable").Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "deadline exceeded")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeShuttingDown, http.StatusServiceUnavailable},
		{CodeRouting, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
