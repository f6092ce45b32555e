package pipeline

import (
	"fmt"

	"tradesage/internal/domain/hypothesis"
)

// Stage identifies one step of the six-step analysis chain.
type Stage string

const (
	StageHypothesisRewrite Stage = "hypothesis_rewrite"
	StageContextAnalysis   Stage = "context_analysis"
	StageResearch          Stage = "research"
	StageContradictions    Stage = "contradictions"
	StageSynthesis         Stage = "synthesis"
	StageAlerts            Stage = "alerts"
)

// stages in execution order.
var stages = []Stage{
	StageHypothesisRewrite,
	StageContextAnalysis,
	StageResearch,
	StageContradictions,
	StageSynthesis,
	StageAlerts,
}

// BuildPrompt renders the instruction text for a stage from the fields the
// previous stages already wrote into the analysis. The returned jsonMode
// flag must be passed to the model client as-is: it is true exactly for the
// stages whose response will go through a JSON extraction cascade, because
// requesting plain text there (or JSON for the free-text stages) degrades
// extraction reliability.
func BuildPrompt(stage Stage, state *hypothesis.Analysis) (prompt string, jsonMode bool) {
	switch stage {
	case StageHypothesisRewrite:
		return fmt.Sprintf(`Process this trading hypothesis: %q

Rewrite it into a clear, concise, and testable thesis statement.
Return only the rewritten thesis statement as plain text.`, state.OriginalHypothesis), false

	case StageContextAnalysis:
		return fmt.Sprintf(`Analyze the context for this trading hypothesis: %q

You must return only a valid JSON object with this structure:
{
  "asset_info": {
    "primary_symbol": "<SYMBOL>",
    "asset_name": "<Asset Name>",
    "asset_type": "<e.g. stock, crypto, commodity>",
    "sector": "<e.g. Technology>"
  },
  "hypothesis_details": {
    "direction": "<long, short, or neutral>",
    "timeframe": "<e.g. 3-6 months>",
    "price_target": "<target price or 'N/A'>"
  },
  "research_guidance": {
    "search_terms": ["<term1>", "<term2>"],
    "key_metrics": ["<metric1>", "<metric2>"]
  },
  "risk_analysis": {
    "primary_risks": ["<risk1>", "<risk2>"]
  }
}`, state.ProcessedHypothesis), true

	case StageResearch:
		return fmt.Sprintf(`You are a research agent.
The hypothesis is: %q
The asset is: %s

Provide a brief summary of recent market data and news for this asset.
Return only a plain text summary.`, state.ProcessedHypothesis, state.Context.AssetInfo.AssetName), false

	case StageContradictions:
		return fmt.Sprintf(`Identify contradictions and risk factors for this hypothesis:
Hypothesis: %q
Asset Context: %s
Research Summary: %s

Find 3-5 specific risks, challenges, or contradictory evidence.

You must return only a valid JSON array of objects:
[
  { "quote": "<The risk>", "reason": "<Why it's a risk>", "source": "<Source>", "strength": "<Low/Medium/High>" }
]

If you cannot find any, return an empty array [].`,
			state.ProcessedHypothesis,
			state.Context.AssetInfo.AssetName,
			truncate(state.ResearchData.Summary, 500)), true

	case StageSynthesis:
		return fmt.Sprintf(`Synthesize a comprehensive investment analysis for this hypothesis:
Hypothesis: %q
Asset: %s
Research: %s
Risk Factors: %d identified

Provide a balanced analysis.
Identify 2-3 supporting confirmations.

You must return only a valid JSON object:
{
  "analysis": "<Your brief synthesis text>",
  "confirmations": [
    { "quote": "<Supporting point>", "reason": "<Why it supports>", "source": "<Source>", "strength": "<Medium/High>" }
  ]
}`,
			state.ProcessedHypothesis,
			state.Context.AssetInfo.AssetName,
			truncate(state.ResearchData.Summary, 500),
			len(state.Contradictions)), true

	case StageAlerts:
		return fmt.Sprintf(`Generate actionable alerts for this investment hypothesis:
Synthesis: %s

Provide 2-3 specific, actionable alerts.

You must return only a valid JSON array of objects:
[
  { "type": "<recommendation/risk_management>", "message": "<The alert message>", "priority": "<high/medium/low>" }
]`, truncate(state.Synthesis, 300)), true
	}

	return "", false
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
