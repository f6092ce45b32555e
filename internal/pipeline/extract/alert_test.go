package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlerts_WholeArray(t *testing.T) {
	response := `[
		{"type": "recommendation", "message": "Enter a position near the 50-day moving average", "priority": "high"},
		{"type": "risk_management", "message": "Set a stop-loss 5% below entry", "priority": "medium"}
	]`

	items := Alerts(response)
	require.Len(t, items, 2)
	assert.Equal(t, "recommendation", items[0].Type)
	assert.Equal(t, "Enter a position near the 50-day moving average", items[0].Message)
	assert.Equal(t, "high", items[0].Priority)
	assert.Equal(t, "risk_management", items[1].Type)
}

func TestAlerts_ArrayEmbeddedInProse(t *testing.T) {
	response := `Here are the alerts you asked for:
[{"message": "Monitor volume for a breakout confirmation"}]
Let me know if you need more.`

	items := Alerts(response)
	require.Len(t, items, 1)
	assert.Equal(t, "Monitor volume for a breakout confirmation", items[0].Message)
}

func TestAlerts_DefaultsForMissingFields(t *testing.T) {
	response := `[{"message": "Watch the upcoming earnings release closely"}]`

	items := Alerts(response)
	require.Len(t, items, 1)
	assert.Equal(t, "recommendation", items[0].Type)
	assert.Equal(t, "medium", items[0].Priority)
}

func TestAlerts_ObjectsWithoutMessageKeySkipped(t *testing.T) {
	response := `[{"type": "recommendation"}, {"message": "Consider scaling in over two weeks"}]`

	items := Alerts(response)
	require.Len(t, items, 1)
	assert.Equal(t, "Consider scaling in over two weeks", items[0].Message)
}

func TestAlerts_MessageClamped(t *testing.T) {
	long := strings.Repeat("é", 700)
	response := fmt.Sprintf(`[{"message": %q}]`, long)

	items := Alerts(response)
	require.Len(t, items, 1)
	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(items[0].Message))
	assert.True(t, utf8.ValidString(items[0].Message))
}

func TestAlerts_CappedAtFive(t *testing.T) {
	var objs []string
	for i := 0; i < 8; i++ {
		objs = append(objs, fmt.Sprintf(`{"message": "alert number %d with enough words"}`, i))
	}
	response := "[" + strings.Join(objs, ",") + "]"

	items := Alerts(response)
	assert.Len(t, items, 5)
}

func TestAlerts_LineHeuristic(t *testing.T) {
	response := strings.Join([]string{
		"Here is my advice:",
		"- Monitor the RSI for a move back above 50",
		"* Set a stop-loss just under last week's low",
		"Short line",
		"we monitor things casually in lowercase prose here",
		"Avoid adding to the position before the Fed meeting",
	}, "\n")

	items := Alerts(response)
	require.Len(t, items, 3)
	assert.Equal(t, "Monitor the RSI for a move back above 50", items[0].Message)
	assert.Equal(t, "Set a stop-loss just under last week's low", items[1].Message)
	assert.Equal(t, "Avoid adding to the position before the Fed meeting", items[2].Message)
	for _, item := range items {
		assert.Equal(t, "recommendation", item.Type)
		assert.Equal(t, "medium", item.Priority)
	}
}

func TestAlerts_DefaultsOnJunk(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "empty", response: ""},
		{name: "prose without verbs", response: "the market did things today and nothing is actionable about it"},
		{name: "unparseable array", response: `[{"message": broken json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Alerts(tt.response)
			require.Len(t, items, 2, "alerts never come back empty")
			assert.Equal(t, "recommendation", items[0].Type)
			assert.Equal(t, "risk_management", items[1].Type)
			assert.NotEmpty(t, items[0].Message)
			assert.NotEmpty(t, items[1].Message)
		})
	}
}
