package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/domain/marketdata"
	"tradesage/internal/metrics"
	"tradesage/internal/pipeline/extract"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

// simulatedResearchSummary stands in when the research stage produced no
// usable text.
const simulatedResearchSummary = "Market data shows high volatility. Recent news is mixed."

// Generator is the model client the orchestrator drives once per stage.
// jsonMode requests strict-JSON generation and must match the extraction
// the stage's response will go through.
type Generator interface {
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// MarketData supplies real quote and fundamentals data for the research
// stage. Fetch never fails: on upstream errors every snapshot field is a
// sentinel the summary template tolerates.
type MarketData interface {
	Fetch(ctx context.Context, symbol string) marketdata.Snapshot
}

// Config selects the research configuration at construction time. It is a
// deployment choice, not a runtime branch: one orchestrator instance always
// runs all its pipelines the same way.
type Config struct {
	LiveResearch bool
}

// Orchestrator drives one hypothesis through the six-stage analysis chain.
// A single instance is safe for concurrent Process calls: all per-run state
// lives in the Analysis value created per invocation.
type Orchestrator struct {
	generator Generator
	market    MarketData
	tracker   errors.Tracker
	method    string
	log       *logger.Logger
}

// NewOrchestrator builds an orchestrator. market may be nil when
// cfg.LiveResearch is false; the research stage then asks the model for a
// simulated summary instead.
func NewOrchestrator(generator Generator, market MarketData, tracker errors.Tracker, cfg Config) *Orchestrator {
	method := hypothesis.MethodSimulated
	if cfg.LiveResearch {
		method = hypothesis.MethodLiveData
	}
	return &Orchestrator{
		generator: generator,
		market:    market,
		tracker:   tracker,
		method:    method,
		log:       logger.Get().With("component", "pipeline"),
	}
}

// Process runs the full chain for one hypothesis and always returns a
// usable result: either a success carrying every stage's output, or an
// error-tagged result when input validation or an upstream call failed.
// Malformed model output is never an error; the extraction cascades absorb
// it. Process never panics and never returns nil.
func (o *Orchestrator) Process(ctx context.Context, req hypothesis.Request) *hypothesis.Analysis {
	text := strings.TrimSpace(req.Hypothesis)
	if text == "" {
		metrics.PipelineRuns.WithLabelValues(hypothesis.StatusError, o.method).Inc()
		return &hypothesis.Analysis{
			Status: hypothesis.StatusError,
			Error:  errors.ErrEmptyHypothesis.Error(),
			Method: o.method,
		}
	}

	state := &hypothesis.Analysis{
		OriginalHypothesis: text,
		Method:             o.method,
	}

	o.log.Infow("starting pipeline", "hypothesis", truncate(text, 100))

	for _, stage := range stages {
		start := time.Now()
		if err := o.runStage(ctx, stage, state); err != nil {
			metrics.ObserveStage(string(stage), start)
			metrics.PipelineRuns.WithLabelValues(hypothesis.StatusError, o.method).Inc()
			o.log.Errorw("pipeline aborted", "stage", stage, "error", err)
			if o.tracker != nil {
				_ = o.tracker.CaptureError(ctx, err, map[string]string{"stage": string(stage)})
			}

			state.Status = hypothesis.StatusError
			state.Error = err.Error()
			return state
		}
		metrics.ObserveStage(string(stage), start)
	}

	state.Status = hypothesis.StatusSuccess
	metrics.PipelineRuns.WithLabelValues(hypothesis.StatusSuccess, o.method).Inc()
	o.log.Infow("pipeline complete",
		"confidence", state.ConfidenceScore,
		"contradictions", len(state.Contradictions),
		"confirmations", len(state.Confirmations),
		"alerts", len(state.Alerts),
	)
	return state
}

// runStage executes one stage: build the prompt, call the model (or the
// market data collaborator for live research), extract, write into state.
// Only upstream failures surface as errors.
func (o *Orchestrator) runStage(ctx context.Context, stage Stage, state *hypothesis.Analysis) error {
	if stage == StageResearch && o.method == hypothesis.MethodLiveData {
		o.runLiveResearch(ctx, state)
		return nil
	}

	prompt, jsonMode := BuildPrompt(stage, state)
	response, err := o.generator.Generate(ctx, prompt, jsonMode)
	if err != nil {
		return errors.Wrapf(err, "stage %s", stage)
	}

	switch stage {
	case StageHypothesisRewrite:
		state.ProcessedHypothesis = extract.Text(response)
	case StageContextAnalysis:
		state.Context = extract.Context(response)
	case StageResearch:
		summary := extract.Text(response)
		if summary == "" {
			summary = simulatedResearchSummary
		}
		state.ResearchData = hypothesis.ResearchData{Summary: summary, Source: "simulated"}
	case StageContradictions:
		state.Contradictions = extract.Contradictions(response)
	case StageSynthesis:
		result := Synthesize(response, state.Contradictions)
		state.Synthesis = result.Analysis
		state.Confirmations = result.Confirmations
		state.ConfidenceScore = result.Confidence
	case StageAlerts:
		state.Alerts = extract.Alerts(response)
	}
	return nil
}

// runLiveResearch injects real market data between the context and
// contradiction stages. The fetch contract guarantees a snapshot, so this
// path cannot fail.
func (o *Orchestrator) runLiveResearch(ctx context.Context, state *hypothesis.Analysis) {
	symbol := state.Context.AssetInfo.PrimarySymbol
	snap := o.market.Fetch(ctx, symbol)

	state.ResearchData = hypothesis.ResearchData{
		Summary: formatSnapshot(snap),
		Source:  snap.Source,
	}
	o.log.Debugw("live research complete", "symbol", symbol, "source", snap.Source)
}

// formatSnapshot renders a snapshot into the fixed research summary
// template. Every field may be the "N/A" sentinel; the template reads the
// same either way.
func formatSnapshot(snap marketdata.Snapshot) string {
	return fmt.Sprintf(
		"Market data for %s: current price %s, volume %s, day high %s, day low %s, 50-day moving average %s. %s",
		snap.Symbol, snap.CurrentPrice, snap.Volume, snap.WeekHigh, snap.WeekLow, snap.FiftyDayMA, snap.Overview,
	)
}
