package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "hello   world\n\t  again",
			expected: "hello world again",
		},
		{
			name:     "removes boilerplate",
			input:    "Real content Cookie Policy more content",
			expected: "Real content more content",
		},
		{
			name:     "empty input",
			input:    "   \n\t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence that runs long."

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, text, Truncate(text, 1000))
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		got := Truncate(text, 40)
		assert.True(t, strings.HasSuffix(got, "."), "got %q", got)
		assert.LessOrEqual(t, len(got), 40)
	})

	t.Run("falls back to word boundary", func(t *testing.T) {
		got := Truncate("no sentence enders here just words and words", 20)
		assert.LessOrEqual(t, len(got), 20)
		assert.False(t, strings.HasSuffix(got, " "))
	})

	t.Run("zero max unchanged", func(t *testing.T) {
		assert.Equal(t, text, Truncate(text, 0))
	})
}
