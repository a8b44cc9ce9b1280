package utils

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// charsPerToken is the usual rough ratio for English and JSON text. Estimates
// only bound prompt context; they never need to match a tokenizer.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Any non-empty text counts as at
// least one token.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if n < charsPerToken {
		return 1
	}
	return n / charsPerToken
}

// TruncateToTokenLimit cuts text to roughly limit tokens on a rune boundary.
// A non-positive limit disables truncation.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	keep := limit * charsPerToken
	i := 0
	for pos := range text {
		if i == keep {
			return text[:pos]
		}
		i++
	}
	return text
}

// TokenBreakdown estimates tokens per labeled section.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}

// FormatBreakdown renders counts as "total (a=1, b=2)" with labels sorted.
func FormatBreakdown(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	total := 0
	for k, n := range counts {
		labels = append(labels, k)
		total += n
	}
	sort.Strings(labels)
	parts := make([]string, len(labels))
	for i, k := range labels {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}
