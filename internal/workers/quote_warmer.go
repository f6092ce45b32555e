package workers

import (
	"context"
	"time"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/domain/marketdata"
)

// SnapshotFetcher is the market data dependency the warmer refreshes
// through. Fetch writes through the snapshot cache as a side effect.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, symbol string) marketdata.Snapshot
}

// QuoteWarmer keeps snapshots for recently analyzed symbols warm in the
// cache so live research stages hit the cache instead of the upstream
// rate limit.
type QuoteWarmer struct {
	*BaseWorker
	repo    hypothesis.Repository
	fetcher SnapshotFetcher
	limit   int
}

// NewQuoteWarmer creates the quote warmer worker
func NewQuoteWarmer(repo hypothesis.Repository, fetcher SnapshotFetcher, interval time.Duration, limit int, enabled bool) *QuoteWarmer {
	return &QuoteWarmer{
		BaseWorker: NewBaseWorker("quote_warmer", interval, enabled),
		repo:       repo,
		fetcher:    fetcher,
		limit:      limit,
	}
}

// Run refreshes one snapshot per recent symbol. Fetch never fails, so the
// only error path is the repository lookup.
func (w *QuoteWarmer) Run(ctx context.Context) error {
	symbols, err := w.repo.RecentSymbols(ctx, w.limit)
	if err != nil {
		w.RecordError(err)
		return err
	}

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap := w.fetcher.Fetch(ctx, symbol)
		w.Log().Debugw("snapshot warmed", "symbol", symbol, "source", snap.Source)
	}

	w.RecordRun()
	w.Log().Infow("quote warm cycle complete", "symbols", len(symbols))
	return nil
}
