package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tradesage/internal/domain/hypothesis"
	"tradesage/pkg/errors"
)

// Compile-time check
var _ hypothesis.Repository = (*HypothesisRepository)(nil)

// HypothesisRepository implements hypothesis.Repository using sqlx. The
// full analysis is stored as a JSONB document; the columns the dashboard
// sorts and filters on are projected out at insert time.
type HypothesisRepository struct {
	db *sqlx.DB
}

// NewHypothesisRepository creates a new hypothesis repository
func NewHypothesisRepository(db *sqlx.DB) *HypothesisRepository {
	return &HypothesisRepository{db: db}
}

// Create inserts a completed analysis
func (r *HypothesisRepository) Create(ctx context.Context, rec *hypothesis.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	document, err := json.Marshal(rec.Analysis)
	if err != nil {
		return errors.Wrap(err, "marshal analysis")
	}

	query := `
		INSERT INTO hypothesis_analyses (
			id, status, symbol, processed_hypothesis, synthesis, confidence_score,
			method, document, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Analysis.Status, rec.Analysis.Context.AssetInfo.PrimarySymbol,
		rec.Analysis.ProcessedHypothesis, rec.Analysis.Synthesis, rec.Analysis.ConfidenceScore,
		rec.Analysis.Method, document, rec.CreatedAt,
	)

	return err
}

// GetByID retrieves one full analysis document
func (r *HypothesisRepository) GetByID(ctx context.Context, id uuid.UUID) (*hypothesis.Record, error) {
	var row struct {
		ID        uuid.UUID `db:"id"`
		Document  []byte    `db:"document"`
		CreatedAt time.Time `db:"created_at"`
	}

	query := `SELECT id, document, created_at FROM hypothesis_analyses WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(errors.ErrNotFound, "hypothesis %s", id)
		}
		return nil, err
	}

	rec := &hypothesis.Record{ID: row.ID, CreatedAt: row.CreatedAt}
	if err := json.Unmarshal(row.Document, &rec.Analysis); err != nil {
		return nil, errors.Wrap(err, "unmarshal analysis")
	}
	return rec, nil
}

// ListSummaries returns dashboard rows, newest first
func (r *HypothesisRepository) ListSummaries(ctx context.Context, limit int) ([]*hypothesis.Summary, error) {
	var summaries []*hypothesis.Summary

	query := `
		SELECT id, created_at, status, symbol, processed_hypothesis, synthesis, confidence_score, method
		FROM hypothesis_analyses
		ORDER BY created_at DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &summaries, query, limit); err != nil {
		return nil, err
	}

	return summaries, nil
}

// RecentSymbols returns the distinct symbols of the most recent successful
// analyses, most recent first. Used by the quote warmer.
func (r *HypothesisRepository) RecentSymbols(ctx context.Context, limit int) ([]string, error) {
	var symbols []string

	query := `
		SELECT symbol FROM (
			SELECT symbol, MAX(created_at) AS last_seen
			FROM hypothesis_analyses
			WHERE status = 'success' AND symbol <> ''
			GROUP BY symbol
		) recent
		ORDER BY last_seen DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &symbols, query, limit); err != nil {
		return nil, err
	}

	return symbols, nil
}
