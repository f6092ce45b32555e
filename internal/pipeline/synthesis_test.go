package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/internal/domain/hypothesis"
)

func TestConfidenceScore(t *testing.T) {
	tests := []struct {
		name     string
		conf     int
		contra   int
		expected float64
	}{
		{"both zero is exactly neutral", 0, 0, 0.5},
		{"confirmations only", 2, 0, 0.3 + (2.0/2.01)*0.4},
		{"contradictions only", 0, 3, 0.3},
		{"balanced", 3, 3, 0.3 + (3.0/6.01)*0.4},
		{"five against zero", 5, 0, 0.3 + (5.0/5.01)*0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ConfidenceScore(tt.conf, tt.contra), 1e-9)
		})
	}
}

func TestConfidenceScore_TwoConfirmationsNoContradictions(t *testing.T) {
	// the canonical reference point: 0.3 + (2/2.01)*0.4 ≈ 0.698
	assert.InDelta(t, 0.698, ConfidenceScore(2, 0), 0.001)
}

func TestConfidenceScore_AlwaysBounded(t *testing.T) {
	for conf := 0; conf <= 10; conf++ {
		for contra := 0; contra <= 10; contra++ {
			score := ConfidenceScore(conf, contra)
			assert.GreaterOrEqual(t, score, 0.15, "conf=%d contra=%d", conf, contra)
			assert.LessOrEqual(t, score, 0.85, "conf=%d contra=%d", conf, contra)
		}
	}
}

func TestSynthesize_WellFormedResponse(t *testing.T) {
	response := `{
		"analysis": "short",
		"confirmations": [
			{"quote": "Earnings growth supports the move", "reason": "Demand", "source": "Earnings", "strength": "High"},
			{"quote": "Positive momentum across the sector", "reason": "Breadth", "source": "Technical", "strength": "Medium"}
		]
	}`

	result := Synthesize(response, nil)

	require.Len(t, result.Confirmations, 2)
	assert.Equal(t, "Earnings growth supports the move", result.Confirmations[0].Quote)
	assert.InDelta(t, 0.698, result.Confidence, 0.001)
}

func TestSynthesize_PlaceholdersOnUnusableResponse(t *testing.T) {
	contradictions := []hypothesis.RiskItem{{Quote: "some risk"}}

	result := Synthesize("nothing useful here", contradictions)

	require.Len(t, result.Confirmations, 2)
	// 2 confirmations vs 1 contradiction
	assert.InDelta(t, 0.3+(2.0/3.01)*0.4, result.Confidence, 1e-9)
	assert.Equal(t, fallbackNarrative, result.Analysis)
}

func TestNarrative_StripsJSONAndCollapsesWhitespace(t *testing.T) {
	prose := strings.Repeat("The balance of evidence favors a measured long position. ", 3)
	response := prose + `{"analysis": "echo"}` + "\n\n   [1, 2, 3]   " + prose

	text := narrative(response)

	assert.NotContains(t, text, "{")
	assert.NotContains(t, text, "[")
	assert.NotContains(t, text, "  ")
	assert.GreaterOrEqual(t, len(text), minNarrativeLen)
}

func TestNarrative_ShortRemainderReplaced(t *testing.T) {
	assert.Equal(t, fallbackNarrative, narrative(`{"analysis": "everything was json"}`))
	assert.Equal(t, fallbackNarrative, narrative("too short"))
	assert.Equal(t, fallbackNarrative, narrative(""))
}
