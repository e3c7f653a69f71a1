package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "local number gets country code",
			raw:      "11999998888",
			expected: "5511999998888",
		},
		{
			name:     "formatted local number is stripped and prefixed",
			raw:      "(11) 99999-8888",
			expected: "5511999998888",
		},
		{
			name:     "already international stays unchanged",
			raw:      "+55 11 99999-8888",
			expected: "5511999998888",
		},
		{
			name:     "short local landline gets country code",
			raw:      "1133334444",
			expected: "551133334444",
		},
		{
			name:     "empty input stays empty",
			raw:      "",
			expected: "",
		},
		{
			name:     "letters only yields empty",
			raw:      "no-phone",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.raw, "55"))
		})
	}
}
