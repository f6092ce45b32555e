package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/metrics"
)

var (
	jsonObjectRe  = regexp.MustCompile(`(?s)\{.*\}`)
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// knownAsset maps common asset names to their traded symbol. The table is
// hand-tuned data, not a classifier: it only needs to cover the assets that
// show up in free-text model responses often enough to matter.
type knownAsset struct {
	aliases   []string
	symbol    string
	name      string
	assetType string
	sector    string
}

var knownAssets = []knownAsset{
	{[]string{"apple", "aapl"}, "AAPL", "Apple Inc.", "stock", "Technology"},
	{[]string{"tesla", "tsla"}, "TSLA", "Tesla Inc.", "stock", "Consumer Cyclical"},
	{[]string{"bitcoin", "btc"}, "BTC", "Bitcoin", "crypto", "Cryptocurrency"},
	{[]string{"microsoft", "msft"}, "MSFT", "Microsoft Corporation", "stock", "Technology"},
	{[]string{"google", "googl"}, "GOOGL", "Alphabet Inc.", "stock", "Technology"},
	{[]string{"amazon", "amzn"}, "AMZN", "Amazon.com Inc.", "stock", "Consumer Cyclical"},
	{[]string{"oil", "crude", "wti", "brent"}, "WTI", "Crude Oil", "commodity", "Energy"},
}

// DefaultContext returns the fully-populated context used when nothing can
// be recovered from the response. Every leaf has a value.
func DefaultContext() hypothesis.AssetContext {
	return hypothesis.AssetContext{
		AssetInfo: hypothesis.AssetInfo{
			PrimarySymbol: "SPY",
			AssetName:     "Financial Asset",
			AssetType:     "equity",
			Sector:        "Technology",
		},
		HypothesisDetails: hypothesis.Details{
			Direction: "neutral",
			Timeframe: "3-6 months",
		},
		ResearchGuidance: hypothesis.ResearchGuidance{
			SearchTerms: []string{"market analysis", "financial data"},
			KeyMetrics:  []string{"price", "volume"},
		},
		RiskAnalysis: hypothesis.RiskAnalysis{
			PrimaryRisks: []string{"market volatility"},
		},
	}
}

// Context recovers an AssetContext from a model response. Strategy order:
// direct parse after stripping code fences, first {...} span in the text,
// fenced code block interior, then keyword scan over the raw text, then the
// default context. The result always has all four sub-records populated.
func Context(response string) hypothesis.AssetContext {
	if strings.TrimSpace(response) == "" {
		metrics.ExtractionStrategy.WithLabelValues("context", "default").Inc()
		return DefaultContext()
	}

	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "{") {
		if ctx, ok := decodeContext(cleaned); ok {
			metrics.ExtractionStrategy.WithLabelValues("context", "direct").Inc()
			return ctx
		}
	}

	if m := jsonObjectRe.FindString(response); m != "" {
		if ctx, ok := decodeContext(m); ok {
			metrics.ExtractionStrategy.WithLabelValues("context", "regex_object").Inc()
			return ctx
		}
	}

	if m := fencedBlockRe.FindStringSubmatch(response); m != nil {
		if ctx, ok := decodeContext(m[1]); ok {
			metrics.ExtractionStrategy.WithLabelValues("context", "fenced_block").Inc()
			return ctx
		}
	}

	return contextFromText(response)
}

// decodeContext parses raw as JSON and merges it over the default context,
// so partially-specified objects still come back fully populated.
func decodeContext(raw string) (hypothesis.AssetContext, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return hypothesis.AssetContext{}, false
	}

	ctx := DefaultContext()
	if v, ok := obj["asset_info"]; ok {
		_ = json.Unmarshal(v, &ctx.AssetInfo)
	}
	if v, ok := obj["hypothesis_details"]; ok {
		_ = json.Unmarshal(v, &ctx.HypothesisDetails)
	}
	if v, ok := obj["research_guidance"]; ok {
		_ = json.Unmarshal(v, &ctx.ResearchGuidance)
	}
	if v, ok := obj["risk_analysis"]; ok {
		_ = json.Unmarshal(v, &ctx.RiskAnalysis)
	}
	fillContextDefaults(&ctx)
	return ctx, true
}

// fillContextDefaults restores any leaf a decoded object blanked out.
func fillContextDefaults(ctx *hypothesis.AssetContext) {
	def := DefaultContext()
	if ctx.AssetInfo.PrimarySymbol == "" {
		ctx.AssetInfo.PrimarySymbol = def.AssetInfo.PrimarySymbol
	}
	if ctx.AssetInfo.AssetName == "" {
		ctx.AssetInfo.AssetName = def.AssetInfo.AssetName
	}
	if ctx.AssetInfo.AssetType == "" {
		ctx.AssetInfo.AssetType = def.AssetInfo.AssetType
	}
	if ctx.AssetInfo.Sector == "" {
		ctx.AssetInfo.Sector = def.AssetInfo.Sector
	}
	if ctx.HypothesisDetails.Direction == "" {
		ctx.HypothesisDetails.Direction = def.HypothesisDetails.Direction
	}
	if ctx.HypothesisDetails.Timeframe == "" {
		ctx.HypothesisDetails.Timeframe = def.HypothesisDetails.Timeframe
	}
	if len(ctx.ResearchGuidance.SearchTerms) == 0 {
		ctx.ResearchGuidance.SearchTerms = def.ResearchGuidance.SearchTerms
	}
	if len(ctx.ResearchGuidance.KeyMetrics) == 0 {
		ctx.ResearchGuidance.KeyMetrics = def.ResearchGuidance.KeyMetrics
	}
	if len(ctx.RiskAnalysis.PrimaryRisks) == 0 {
		ctx.RiskAnalysis.PrimaryRisks = def.RiskAnalysis.PrimaryRisks
	}
}

// contextFromText scans free text for a known asset mention and builds the
// context around the first hit, falling back to the default context.
func contextFromText(response string) hypothesis.AssetContext {
	ctx := DefaultContext()
	lower := strings.ToLower(response)

	for _, asset := range knownAssets {
		for _, alias := range asset.aliases {
			if strings.Contains(lower, alias) {
				ctx.AssetInfo = hypothesis.AssetInfo{
					PrimarySymbol: asset.symbol,
					AssetName:     asset.name,
					AssetType:     asset.assetType,
					Sector:        asset.sector,
				}
				metrics.ExtractionStrategy.WithLabelValues("context", "keyword_table").Inc()
				return ctx
			}
		}
	}

	metrics.ExtractionStrategy.WithLabelValues("context", "default").Inc()
	return ctx
}
