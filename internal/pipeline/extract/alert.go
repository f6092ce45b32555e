package extract

import (
	"encoding/json"
	"strings"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/metrics"
)

const (
	maxAlerts     = 5
	maxMessageLen = 500
)

// Verbs that mark a line as an actionable recommendation when no JSON can
// be recovered from an alerts response. Matched case-sensitively so prose
// mid-sentence usage ("we set", "to monitor") is less likely to trigger.
var actionWords = []string{
	"Enter", "Set", "Monitor", "Wait", "Consider", "Watch", "Avoid",
}

func defaultAlerts() []hypothesis.AlertItem {
	return []hypothesis.AlertItem{
		{
			Type:     "recommendation",
			Message:  "Monitor price action and volume for entry signals",
			Priority: "medium",
		},
		{
			Type:     "risk_management",
			Message:  "Set appropriate stop-loss levels based on volatility",
			Priority: "medium",
		},
	}
}

// Alerts recovers actionable alerts from a model response. Strategy order:
// first array literal in the text, then a line heuristic keyed on action
// verbs, then two fixed defaults. Never returns fewer than two alerts
// unless the model produced a usable single-item array.
func Alerts(response string) []hypothesis.AlertItem {
	if m := jsonArrayRe.FindString(response); m != "" {
		if items := alertsFromArray(m); len(items) > 0 {
			metrics.ExtractionStrategy.WithLabelValues("alerts", "regex_array").Inc()
			return items
		}
	}

	var items []hypothesis.AlertItem
	for _, line := range strings.Split(response, "\n") {
		line = strings.Trim(line, "•-*\"' ")
		if len(line) < minHeuristicLineLen {
			continue
		}
		for _, word := range actionWords {
			if strings.Contains(line, word) {
				items = append(items, hypothesis.AlertItem{
					Type:     "recommendation",
					Message:  clamp(line, maxMessageLen),
					Priority: "medium",
				})
				break
			}
		}
	}
	if len(items) > 0 {
		if len(items) > maxAlerts {
			items = items[:maxAlerts]
		}
		metrics.ExtractionStrategy.WithLabelValues("alerts", "line_heuristic").Inc()
		return items
	}

	metrics.ExtractionStrategy.WithLabelValues("alerts", "default").Inc()
	return defaultAlerts()
}

func alertsFromArray(raw string) []hypothesis.AlertItem {
	var list []map[string]any
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	var items []hypothesis.AlertItem
	for _, obj := range list {
		if _, ok := obj["message"]; !ok {
			continue
		}
		items = append(items, hypothesis.AlertItem{
			Type:     stringField(obj, "type", "recommendation"),
			Message:  clamp(stringField(obj, "message", ""), maxMessageLen),
			Priority: stringField(obj, "priority", "medium"),
		})
		if len(items) >= maxAlerts {
			break
		}
	}
	return items
}
