package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/internal/domain/hypothesis"
	"tradesage/internal/domain/marketdata"
	"tradesage/pkg/errors"
)

type countingWorker struct {
	*BaseWorker
	runs atomic.Int32
	err  error
}

func (w *countingWorker) Run(_ context.Context) error {
	w.runs.Add(1)
	if w.err != nil {
		w.RecordError(w.err)
		return w.err
	}
	w.RecordRun()
	return nil
}

func TestScheduler_RunsWorkerImmediately(t *testing.T) {
	w := &countingWorker{BaseWorker: NewBaseWorker("test", time.Hour, true)}

	s := NewScheduler()
	s.RegisterWorker(w)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return w.runs.Load() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestScheduler_SkipsDisabledWorker(t *testing.T) {
	w := &countingWorker{BaseWorker: NewBaseWorker("disabled", time.Hour, false)}

	s := NewScheduler()
	s.RegisterWorker(w)
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, w.runs.Load())

	require.NoError(t, s.Stop())
}

func TestScheduler_DoubleStartFails(t *testing.T) {
	s := NewScheduler()
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestScheduler_SurvivesWorkerErrors(t *testing.T) {
	w := &countingWorker{
		BaseWorker: NewBaseWorker("failing", 20*time.Millisecond, true),
		err:        errors.ErrExternal,
	}

	s := NewScheduler()
	s.RegisterWorker(w)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return w.runs.Load() >= 2 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.Equal(t, w.Health().ErrorCount, w.Health().RunCount)
}

// fake repository serving fixed symbols
type fixedSymbolRepo struct {
	symbols []string
	err     error
}

func (r *fixedSymbolRepo) Create(context.Context, *hypothesis.Record) error { return nil }
func (r *fixedSymbolRepo) GetByID(context.Context, uuid.UUID) (*hypothesis.Record, error) {
	return nil, errors.ErrNotFound
}
func (r *fixedSymbolRepo) ListSummaries(context.Context, int) ([]*hypothesis.Summary, error) {
	return nil, nil
}
func (r *fixedSymbolRepo) RecentSymbols(context.Context, int) ([]string, error) {
	return r.symbols, r.err
}

type recordingFetcher struct {
	fetched []string
}

func (f *recordingFetcher) Fetch(_ context.Context, symbol string) marketdata.Snapshot {
	f.fetched = append(f.fetched, symbol)
	return marketdata.Snapshot{Symbol: symbol, Source: "alpha_vantage"}
}

func TestQuoteWarmer_WarmsRecentSymbols(t *testing.T) {
	repo := &fixedSymbolRepo{symbols: []string{"AAPL", "TSLA", "SPY"}}
	fetcher := &recordingFetcher{}

	w := NewQuoteWarmer(repo, fetcher, time.Minute, 10, true)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []string{"AAPL", "TSLA", "SPY"}, fetcher.fetched)
	assert.Equal(t, int64(1), w.Health().RunCount)
}

func TestQuoteWarmer_PropagatesRepoError(t *testing.T) {
	repo := &fixedSymbolRepo{err: errors.ErrUnavailable}
	w := NewQuoteWarmer(repo, &recordingFetcher{}, time.Minute, 10, true)

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, int64(1), w.Health().ErrorCount)
}
