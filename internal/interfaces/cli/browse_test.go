package cli

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short ascii untouched", "blanket", 24, "blanket"},
		{"long ascii truncated", "a very long blanket title indeed", 10, "a very ..."},
		{"short japanese untouched", "モコモコ毛布", 24, "モコモコ毛布"},
		{"long japanese truncated on rune boundary", "ふわふわあったかブランケット特集", 10, "ふわふわあった..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateString(tt.in, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, len([]rune(got)), tt.maxLen)
		})
	}
}
