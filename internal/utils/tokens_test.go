package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := map[string]struct {
		in   string
		want int
	}{
		"empty":     {"", 0},
		"short":     {"hi", 1},
		"simple":    {"hello world", 2},
		"long":      {strings.Repeat("a", 4000), 1000},
		"multibyte": {strings.Repeat("ü", 8), 2},
	}
	for name, c := range cases {
		assert.Equal(t, c.want, utils.CountTokens(c.in), name)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	assert.Len(t, trunc, 1200)
	assert.LessOrEqual(t, utils.CountTokens(trunc), 300)
	assert.Equal(t, text, utils.TruncateToTokenLimit(text, 0))
	assert.Equal(t, "short", utils.TruncateToTokenLimit("short", 10))

	// Cuts never split a rune.
	assert.Equal(t, "ääää", utils.TruncateToTokenLimit("äääää", 1))
}

func TestTokenBreakdown(t *testing.T) {
	got := utils.TokenBreakdown(map[string]string{"user": strings.Repeat("x", 40), "system": ""})
	assert.Equal(t, map[string]int{"user": 10, "system": 0}, got)
	assert.Equal(t, "10 (system=0, user=10)", utils.FormatBreakdown(got))
}
