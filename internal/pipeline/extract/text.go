// Package extract recovers structured data from raw model responses.
//
// Every function in this package is a best-effort cascade: an ordered list
// of strategies tried first-match-wins, ending in a deterministic fallback.
// Nothing here ever returns an error — the upstream is a language model
// whose adherence to formatting instructions is probabilistic, so
// correctness means "always produces a usable typed value", not "only
// accepts well-formed input".
package extract

import (
	"strings"
	"unicode/utf8"

	"tradesage/internal/metrics"
)

// Boilerplate prefixes models tend to prepend to free-text answers.
// First matching prefix wins; only one is removed.
var textPrefixes = []string{
	"Here's the processed hypothesis:",
	"Here is the processed hypothesis:",
	"Processed hypothesis:",
	"The processed hypothesis is:",
	"Analysis:",
	"Response:",
	"Output:",
}

// Text cleans a free-text model response: trims whitespace, strips one
// known boilerplate prefix and one layer of surrounding quotes. An empty
// result is valid output, not an error.
func Text(response string) string {
	cleaned := strings.TrimSpace(response)
	if cleaned == "" {
		return ""
	}

	for _, prefix := range textPrefixes {
		if len(cleaned) >= len(prefix) && strings.EqualFold(cleaned[:len(prefix)], prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}

	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	metrics.ExtractionStrategy.WithLabelValues("text", "clean").Inc()
	return cleaned
}

// clamp truncates s to at most max characters, never splitting a rune.
func clamp(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// stringField reads a string value out of a loosely-typed decoded JSON
// object, falling back to def when the key is absent or not a string.
func stringField(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
