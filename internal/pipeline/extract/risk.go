package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/metrics"
)

const (
	maxRiskItems = 5
	maxQuoteLen  = 400
	maxReasonLen = 400
	maxSourceLen = 40

	minHeuristicLineLen = 20
)

var (
	jsonArrayRe        = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)
	quoteObjectRe      = regexp.MustCompile(`\{[^{}]*"quote"[^{}]*\}`)
	confirmationsKeyRe = regexp.MustCompile(`(?s)"confirmations"\s*:\s*\[\s*\{.*?\}\s*\]`)
)

// Lines matching any of these words are treated as risks when no JSON can
// be recovered from a contradictions response.
var riskIndicators = []string{
	"risk", "challenge", "concern", "pressure", "decline",
	"competition", "regulation", "slowdown", "headwind", "threat",
	"weakness", "vulnerability", "uncertainty", "volatility",
}

// Standalone objects whose quote contains one of these markers are treated
// as confirmations rather than contradictions.
var confirmationMarkers = []string{
	"support", "positive", "growth", "strong", "favorable",
	"bullish", "momentum", "advantage",
}

const contradictionReason = "Market analysis identifies this challenge"

// placeholderConfirmations returns the two fixed confirmations substituted
// when nothing can be recovered from a synthesis response. Contradictions
// deliberately do NOT get an equivalent: an empty contradiction list is a
// legitimate outcome, an empty confirmation list is not.
func placeholderConfirmations() []hypothesis.RiskItem {
	return []hypothesis.RiskItem{
		{
			Quote:    "Market analysis indicates potential for this hypothesis based on current conditions.",
			Reason:   "Fundamental and technical factors suggest favorable conditions.",
			Source:   "Market Analysis",
			Strength: "Medium",
		},
		{
			Quote:    "Technical indicators and market sentiment support the thesis.",
			Reason:   "Multiple signals align with the hypothesis direction.",
			Source:   "Technical Analysis",
			Strength: "Medium",
		},
	}
}

// riskItem converts one loosely-typed decoded object into a RiskItem,
// clamping lengths and defaulting missing fields. Objects without a quote
// key are rejected.
func riskItem(obj map[string]any, defaultReason string) (hypothesis.RiskItem, bool) {
	if _, ok := obj["quote"]; !ok {
		return hypothesis.RiskItem{}, false
	}
	return hypothesis.RiskItem{
		Quote:    clamp(stringField(obj, "quote", ""), maxQuoteLen),
		Reason:   clamp(stringField(obj, "reason", defaultReason), maxReasonLen),
		Source:   clamp(stringField(obj, "source", "Market Analysis"), maxSourceLen),
		Strength: stringField(obj, "strength", "Medium"),
	}, true
}

// riskItemsFromArray decodes a JSON array and keeps the well-formed
// risk objects, capped at maxRiskItems.
func riskItemsFromArray(raw, defaultReason string) []hypothesis.RiskItem {
	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	var items []hypothesis.RiskItem
	for _, obj := range list {
		if item, ok := riskItem(obj, defaultReason); ok {
			items = append(items, item)
			if len(items) >= maxRiskItems {
				break
			}
		}
	}
	return items
}

// riskItemsFromObjects scans for standalone {..."quote"...} substrings and
// decodes each independently, skipping ones that fail to parse.
func riskItemsFromObjects(response, defaultReason string) []hypothesis.RiskItem {
	var items []hypothesis.RiskItem
	for _, raw := range quoteObjectRe.FindAllString(response, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		if item, ok := riskItem(obj, defaultReason); ok {
			items = append(items, item)
			if len(items) >= maxRiskItems {
				break
			}
		}
	}
	return items
}

// Contradictions recovers risk items that argue against the hypothesis.
// Strategy order: whole-response array, first array literal in the text,
// standalone quote objects, then a line heuristic keyed on risk words. An
// empty result is a valid outcome.
func Contradictions(response string) []hypothesis.RiskItem {
	response = strings.TrimSpace(response)

	if items := riskItemsFromArray(response, contradictionReason); len(items) > 0 {
		metrics.ExtractionStrategy.WithLabelValues("contradictions", "whole_array").Inc()
		return items
	}

	if m := jsonArrayRe.FindString(response); m != "" {
		if items := riskItemsFromArray(m, contradictionReason); len(items) > 0 {
			metrics.ExtractionStrategy.WithLabelValues("contradictions", "regex_array").Inc()
			return items
		}
	}

	if items := riskItemsFromObjects(response, contradictionReason); len(items) > 0 {
		metrics.ExtractionStrategy.WithLabelValues("contradictions", "object_scan").Inc()
		return items
	}

	var items []hypothesis.RiskItem
	for _, line := range strings.Split(response, "\n") {
		line = strings.Trim(line, `*-• "`)
		if len(line) < minHeuristicLineLen {
			continue
		}
		lower := strings.ToLower(line)
		for _, word := range riskIndicators {
			if strings.Contains(lower, word) {
				items = append(items, hypothesis.RiskItem{
					Quote:    clamp(line, maxQuoteLen),
					Reason:   "Market analysis identifies this as a potential challenge.",
					Source:   "Text Analysis",
					Strength: "Medium",
				})
				break
			}
		}
		if len(items) >= maxRiskItems {
			break
		}
	}
	if len(items) > 0 {
		metrics.ExtractionStrategy.WithLabelValues("contradictions", "line_heuristic").Inc()
		return items
	}

	metrics.ExtractionStrategy.WithLabelValues("contradictions", "empty").Inc()
	return nil
}

// Confirmations recovers risk items that support the hypothesis from a
// synthesis response. Strategy order: a confirmations key in a parsed JSON
// object (or the whole response as a bare array), the confirmations array
// located by regex, standalone quote objects filtered by positive language
// markers, then the two fixed placeholders. Never returns an empty list.
func Confirmations(response string) []hypothesis.RiskItem {
	response = strings.TrimSpace(response)

	if items := confirmationsFromJSON(response); len(items) > 0 {
		metrics.ExtractionStrategy.WithLabelValues("confirmations", "whole_parse").Inc()
		return items
	}

	if m := confirmationsKeyRe.FindString(response); m != "" {
		if arr := jsonArrayRe.FindString(m); arr != "" {
			if items := riskItemsFromArray(arr, ""); len(items) > 0 {
				metrics.ExtractionStrategy.WithLabelValues("confirmations", "regex_array").Inc()
				return items
			}
		}
	}

	var items []hypothesis.RiskItem
	for _, cand := range riskItemsFromObjects(response, "") {
		lower := strings.ToLower(cand.Quote)
		for _, marker := range confirmationMarkers {
			if strings.Contains(lower, marker) {
				items = append(items, cand)
				break
			}
		}
		if len(items) >= maxRiskItems {
			break
		}
	}
	if len(items) > 0 {
		metrics.ExtractionStrategy.WithLabelValues("confirmations", "object_scan").Inc()
		return items
	}

	metrics.ExtractionStrategy.WithLabelValues("confirmations", "placeholder").Inc()
	return placeholderConfirmations()
}

// confirmationsFromJSON handles the whole-response parse: either an object
// carrying a confirmations array or a bare top-level array.
func confirmationsFromJSON(response string) []hypothesis.RiskItem {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response), &obj); err == nil {
		if raw, ok := obj["confirmations"]; ok {
			return riskItemsFromArray(string(raw), "")
		}
		return nil
	}
	return riskItemsFromArray(response, "")
}
