package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"+1-555-123-4567", true},
		{"1234567890", true},
		{"+44 20 7946 0958", true},
		{"1 (555) 123-4567", true},
		{"(555) 123-4567", false},
		{"555.123.4567", true},
		{"+49 (30) 1234 5678", true},
		{"+1\u00a0555\u00a0123\u00a04567", true},
		{"+1\v555\v123\v4567", true},
		{"+44\u2009020\u20097946", true},
		{"+1\u3000555\u3000123\u30004567", true},
		{"+1_555_123_4567", false},
		{"", false},
		{"abc", false},
		{"+", false},
		{"555-abc-4567", false},
		{"++1 555 123 4567", false},
		{"1234567890123456789012345", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.input))
		})
	}
}
