package hypothesis

import (
	"time"

	"github.com/google/uuid"
)

// Analysis status values. A run either completes every stage or is
// terminal with StatusError; there is no partial state.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Method tags describing how research data was obtained for a run.
const (
	MethodLiveData  = "live_data_pipeline"
	MethodSimulated = "simulated_research_pipeline"
)

// Request is a single hypothesis submitted for analysis.
type Request struct {
	Hypothesis string `json:"hypothesis"`
}

// AssetInfo identifies the asset a hypothesis is about.
type AssetInfo struct {
	PrimarySymbol string `json:"primary_symbol"`
	AssetName     string `json:"asset_name"`
	AssetType     string `json:"asset_type"` // stock, crypto, commodity, forex, index
	Sector        string `json:"sector"`
}

// Details captures the directional claim embedded in the hypothesis.
type Details struct {
	Direction   string `json:"direction"` // long, short, neutral
	Timeframe   string `json:"timeframe"`
	PriceTarget string `json:"price_target"`
}

// ResearchGuidance steers the research stage toward relevant material.
type ResearchGuidance struct {
	SearchTerms []string `json:"search_terms"`
	KeyMetrics  []string `json:"key_metrics"`
}

// RiskAnalysis lists the risks surfaced during context extraction.
type RiskAnalysis struct {
	PrimaryRisks []string `json:"primary_risks"`
}

// AssetContext is the structured interpretation of a hypothesis produced
// by the context stage.
type AssetContext struct {
	AssetInfo         AssetInfo        `json:"asset_info"`
	HypothesisDetails Details          `json:"hypothesis_details"`
	ResearchGuidance  ResearchGuidance `json:"research_guidance"`
	RiskAnalysis      RiskAnalysis     `json:"risk_analysis"`
}

// RiskItem is a single contradiction or confirmation extracted from a
// model response.
type RiskItem struct {
	Quote    string `json:"quote"`
	Reason   string `json:"reason"`
	Source   string `json:"source"`
	Strength string `json:"strength"` // Low, Medium, High
}

// AlertItem is an actionable recommendation produced by the alert stage.
type AlertItem struct {
	Type     string `json:"type"` // recommendation, risk_management
	Message  string `json:"message"`
	Priority string `json:"priority"` // high, medium, low
}

// ResearchData holds the market evidence gathered for a hypothesis.
type ResearchData struct {
	Summary string `json:"summary"`
	Source  string `json:"source"` // alpha_vantage or simulated
}

// Analysis is the complete result of a pipeline run. Fields are filled
// stage by stage; on failure Status is StatusError and Error carries the
// cause while the remaining fields keep whatever was produced so far.
type Analysis struct {
	Status              string       `json:"status"`
	Error               string       `json:"error,omitempty"`
	OriginalHypothesis  string       `json:"original_hypothesis"`
	ProcessedHypothesis string       `json:"processed_hypothesis,omitempty"`
	Context             AssetContext `json:"context,omitempty"`
	ResearchData        ResearchData `json:"research_data,omitempty"`
	Contradictions      []RiskItem   `json:"contradictions"`
	Confirmations       []RiskItem   `json:"confirmations"`
	Synthesis           string       `json:"synthesis,omitempty"`
	Alerts              []AlertItem  `json:"alerts"`
	ConfidenceScore     float64      `json:"confidence_score"`
	Method              string       `json:"method"`
}

// Record is a persisted analysis.
type Record struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Analysis  Analysis  `json:"analysis"`
}

// Summary is the dashboard projection of a record.
type Summary struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	Status              string    `db:"status" json:"status"`
	Symbol              string    `db:"symbol" json:"symbol"`
	ProcessedHypothesis string    `db:"processed_hypothesis" json:"processed_hypothesis"`
	Synthesis           string    `db:"synthesis" json:"synthesis"`
	ConfidenceScore     float64   `db:"confidence_score" json:"confidence_score"`
	Method              string    `db:"method" json:"method"`
}
