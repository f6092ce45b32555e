package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/services/predictor"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

const defaultDashboardLimit = 20

// Pipeline runs a hypothesis through the full analysis pipeline.
type Pipeline interface {
	Process(ctx context.Context, req hypothesis.Request) *hypothesis.Analysis
}

// Predictor exposes the price prediction endpoints' backing service.
type Predictor interface {
	Enabled() bool
	Predict(ctx context.Context, ticker string) (*predictor.Prediction, error)
	Realtime(ctx context.Context, ticker string) (*predictor.RealtimeQuote, error)
	Analyze(ctx context.Context, ticker, prompt string) (*predictor.NewsAnalysis, error)
}

// Handler serves the REST API.
type Handler struct {
	pipeline  Pipeline
	repo      hypothesis.Repository
	predictor Predictor
	log       *logger.Logger
}

// NewHandler creates the REST handler. predictor may be nil when the
// price model is not configured.
func NewHandler(pipeline Pipeline, repo hypothesis.Repository, pred Predictor, log *logger.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		repo:      repo,
		predictor: pred,
		log:       log,
	}
}

// AnalyzeRequest is the body of POST /ai/analyze.
type AnalyzeRequest struct {
	Ticker string `json:"ticker"`
	Prompt string `json:"prompt"`
}

// HandleProcess runs the pipeline on a submitted hypothesis and persists
// the result. A pipeline run that ends in an error state maps to 500; an
// analysis that merely found nothing useful is still a success.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req hypothesis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Hypothesis) == "" {
		writeError(w, http.StatusBadRequest, errors.ErrEmptyHypothesis.Error())
		return
	}

	analysis := h.pipeline.Process(r.Context(), req)
	if analysis.Status == hypothesis.StatusError {
		writeError(w, http.StatusInternalServerError, analysis.Error)
		return
	}

	record := &hypothesis.Record{Analysis: *analysis}
	if err := h.repo.Create(r.Context(), record); err != nil {
		h.log.Errorw("Failed to persist analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store analysis")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandleDashboard returns recent analysis summaries, newest first.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultDashboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	summaries, err := h.repo.ListSummaries(r.Context(), limit)
	if err != nil {
		h.log.Errorw("Failed to list summaries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	if summaries == nil {
		summaries = []*hypothesis.Summary{}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// HandleGetHypothesis returns a stored analysis by id.
func (h *Handler) HandleGetHypothesis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hypothesis id")
		return
	}

	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hypothesis not found")
			return
		}
		h.log.Errorw("Failed to load hypothesis", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load hypothesis")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandlePredict returns the model's next-close forecast for a ticker.
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if !h.predictorEnabled() {
		writeError(w, http.StatusServiceUnavailable, errors.ErrPredictorDisabled.Error())
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writePredictorError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

// HandleRealtime returns the latest quote with a nested prediction.
func (h *Handler) HandleRealtime(w http.ResponseWriter, r *http.Request) {
	if !h.predictorEnabled() {
		writeError(w, http.StatusServiceUnavailable, errors.ErrPredictorDisabled.Error())
		return
	}

	quote, err := h.predictor.Realtime(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writePredictorError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// HandleAnalyze scores the sentiment of a prompt and folds it into the
// model's forecast for the ticker.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.predictorEnabled() {
		writeError(w, http.StatusServiceUnavailable, errors.ErrPredictorDisabled.Error())
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	analysis, err := h.predictor.Analyze(r.Context(), req.Ticker, req.Prompt)
	if err != nil {
		h.writePredictorError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handler) predictorEnabled() bool {
	return h.predictor != nil && h.predictor.Enabled()
}

func (h *Handler) writePredictorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInsufficientData), errors.Is(err, errors.ErrInvalidSymbol):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errors.ErrPredictorDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Errorw("Prediction failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
