package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text unchanged",
			input:    "AAPL will rise 10% over the next two quarters",
			expected: "AAPL will rise 10% over the next two quarters",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   \n\t  ",
			expected: "",
		},
		{
			name:     "known prefix stripped",
			input:    "Here's the processed hypothesis: AAPL will rise 10%",
			expected: "AAPL will rise 10%",
		},
		{
			name:     "prefix match is case-insensitive",
			input:    "PROCESSED HYPOTHESIS: TSLA will fall",
			expected: "TSLA will fall",
		},
		{
			name:     "only first matching prefix removed",
			input:    "Analysis: Response: still here",
			expected: "Response: still here",
		},
		{
			name:     "surrounding quotes stripped",
			input:    `"AAPL will rise 10%"`,
			expected: "AAPL will rise 10%",
		},
		{
			name:     "only one quote layer stripped",
			input:    `""double quoted""`,
			expected: `"double quoted"`,
		},
		{
			name:     "interior quotes kept",
			input:    `the "smart money" is buying`,
			expected: `the "smart money" is buying`,
		},
		{
			name:     "prefix then quotes",
			input:    `Output: "BTC consolidates near highs"`,
			expected: "BTC consolidates near highs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"Response: \"MSFT cloud revenue accelerates\"",
		"plain hypothesis with no artifacts",
		"",
		"Analysis: nested Analysis: prefix",
	}
	for _, input := range inputs {
		once := Text(input)
		assert.Equal(t, once, Text(once), "input %q", input)
	}
}
