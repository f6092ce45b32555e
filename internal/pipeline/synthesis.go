package pipeline

import (
	"regexp"
	"strings"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/pipeline/extract"
)

const (
	confidenceFloor = 0.15
	confidenceCeil  = 0.85

	minNarrativeLen = 100

	fallbackNarrative = "Analysis complete. Confidence score reflects market data, supporting factors, and identified risks."
)

var (
	jsonObjectSpanRe = regexp.MustCompile(`\{[^}]+\}`)
	jsonArraySpanRe  = regexp.MustCompile(`\[[^\]]+\]`)
)

// SynthesisResult is the parsed output of the synthesis stage.
type SynthesisResult struct {
	Analysis      string
	Confirmations []hypothesis.RiskItem
	Confidence    float64
}

// Synthesize turns a raw synthesis response plus the already-resolved
// contradictions into confirmations, a confidence score and a cleaned
// narrative. Like the extraction cascades it never fails.
func Synthesize(response string, contradictions []hypothesis.RiskItem) SynthesisResult {
	confirmations := extract.Confirmations(response)
	if len(confirmations) > 5 {
		confirmations = confirmations[:5]
	}

	return SynthesisResult{
		Analysis:      narrative(response),
		Confirmations: confirmations,
		Confidence:    ConfidenceScore(len(confirmations), len(contradictions)),
	}
}

// ConfidenceScore maps confirmation and contradiction counts to a bounded
// heuristic score. The +0.01 denominator guard avoids division by zero
// without branching; the ratio term maps into [0.3, 0.7] before the outer
// clamp. Zero counts on both sides score exactly 0.5.
func ConfidenceScore(confCount, contraCount int) float64 {
	if confCount == 0 && contraCount == 0 {
		return 0.5
	}
	ratio := float64(confCount) / (float64(confCount) + float64(contraCount) + 0.01)
	confidence := 0.3 + ratio*0.4
	if confidence < confidenceFloor {
		return confidenceFloor
	}
	if confidence > confidenceCeil {
		return confidenceCeil
	}
	return confidence
}

// narrative strips stray JSON spans the model may have echoed, collapses
// whitespace and substitutes a generic sentence when too little prose
// remains. A short remainder is treated as a failed narrative extraction,
// not a valid terse answer.
func narrative(response string) string {
	text := strings.TrimSpace(response)
	text = jsonObjectSpanRe.ReplaceAllString(text, "")
	text = jsonArraySpanRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	if len(text) < minNarrativeLen {
		return fallbackNarrative
	}
	return text
}
