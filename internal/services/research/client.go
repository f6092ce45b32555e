// Package research fetches quote and fundamentals data from Alpha Vantage
// for the analysis pipeline and the price predictor.
package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"tradesage/internal/adapters/config"
	"tradesage/internal/domain/marketdata"
	"tradesage/internal/metrics"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

const fallbackOverview = "Financial data could not be retrieved due to API limits or a bad symbol."

// Cache is the snapshot cache the service writes through. Satisfied by the
// redis adapter; nil disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service wraps the Alpha Vantage HTTP API. One instance is safe for
// concurrent use; the shared limiter keeps all callers inside the
// free-tier quota.
type Service struct {
	cfg     config.MarketDataConfig
	http    *http.Client
	cache   Cache
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewService creates the market data service. cache may be nil.
func NewService(cfg config.MarketDataConfig, cache Cache) *Service {
	return &Service{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1),
		log:     logger.Get().With("component", "market_research"),
	}
}

// Fetch returns the current snapshot for a symbol. It never fails: on any
// upstream problem every field is a sentinel the research summary template
// tolerates, with Source marking the degradation.
func (s *Service) Fetch(ctx context.Context, symbol string) marketdata.Snapshot {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cacheKey := "market:snapshot:" + symbol
	if s.cache != nil {
		var cached marketdata.Snapshot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil && cached.Symbol != "" {
			metrics.MarketDataCalls.WithLabelValues("snapshot", "cache_hit").Inc()
			return cached
		}
	}

	if s.cfg.AlphaVantageKey == "" {
		s.log.Warn("alpha vantage API key not set, returning fallback data")
		return fallbackSnapshot(symbol)
	}

	var quote, overview map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = s.globalQuote(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		overview, err = s.companyOverview(gctx, symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warnw("market data fetch failed", "symbol", symbol, "error", err)
		metrics.MarketDataCalls.WithLabelValues("snapshot", "error").Inc()
		return fallbackSnapshot(symbol)
	}

	snap := marketdata.Snapshot{
		Symbol:       symbol,
		CurrentPrice: normalizePrice(field(quote, "05. price")),
		Volume:       normalizeVolume(field(quote, "06. volume")),
		WeekHigh:     normalizePrice(field(quote, "03. high")),
		WeekLow:      normalizePrice(field(quote, "04. low")),
		Overview:     fieldDefault(overview, "Description", "No detailed overview available."),
		FiftyDayMA:   normalizePrice(field(overview, "50DayMovingAverage")),
		Source:       "alpha_vantage",
		RetrievedAt:  time.Now().UTC(),
	}

	if snap.CurrentPrice == marketdata.NotAvailable && strings.HasPrefix(snap.Overview, "No detailed") {
		s.log.Warnw("alpha vantage returned no data", "symbol", symbol)
		metrics.MarketDataCalls.WithLabelValues("snapshot", "no_data").Inc()
		return fallbackSnapshot(symbol)
	}

	metrics.MarketDataCalls.WithLabelValues("snapshot", "success").Inc()
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snap, s.cfg.CacheTTL); err != nil {
			s.log.Warnw("snapshot cache write failed", "symbol", symbol, "error", err)
		}
	}
	return snap
}

// DailyCandles returns up to limit most recent daily bars, oldest first.
// Unlike Fetch this surfaces errors: the price predictor cannot run on
// sentinel data.
func (s *Service) DailyCandles(ctx context.Context, symbol string, limit int) ([]marketdata.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.ErrInvalidSymbol
	}

	var payload struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := s.get(ctx, map[string]string{
		"function":   "TIME_SERIES_DAILY",
		"symbol":     symbol,
		"outputsize": "compact",
	}, &payload); err != nil {
		metrics.MarketDataCalls.WithLabelValues("daily", "error").Inc()
		return nil, err
	}
	if len(payload.Series) == 0 {
		metrics.MarketDataCalls.WithLabelValues("daily", "no_data").Inc()
		return nil, errors.Wrapf(errors.ErrInsufficientData, "no daily series for %s", symbol)
	}

	candles := make([]marketdata.Candle, 0, len(payload.Series))
	for day, bar := range payload.Series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Date:   date,
			Open:   parseFloat(bar["1. open"]),
			High:   parseFloat(bar["2. high"]),
			Low:    parseFloat(bar["3. low"]),
			Close:  parseFloat(bar["4. close"]),
			Volume: parseFloat(bar["5. volume"]),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date.Before(candles[j].Date) })
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	metrics.MarketDataCalls.WithLabelValues("daily", "success").Inc()
	return candles, nil
}

func (s *Service) globalQuote(ctx context.Context, symbol string) (map[string]string, error) {
	var payload struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := s.get(ctx, map[string]string{
		"function": "GLOBAL_QUOTE",
		"symbol":   symbol,
	}, &payload); err != nil {
		return nil, err
	}
	return payload.Quote, nil
}

func (s *Service) companyOverview(ctx context.Context, symbol string) (map[string]string, error) {
	var payload map[string]string
	if err := s.get(ctx, map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
	}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// get performs one rate-limited API call and decodes the JSON body.
func (s *Service) get(ctx context.Context, params map[string]string, dest interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait")
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("apikey", s.cfg.AlphaVantageKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+values.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrExternal, "alpha vantage returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func fallbackSnapshot(symbol string) marketdata.Snapshot {
	return marketdata.Snapshot{
		Symbol:       symbol,
		CurrentPrice: marketdata.NotAvailable,
		Volume:       marketdata.NotAvailable,
		WeekHigh:     marketdata.NotAvailable,
		WeekLow:      marketdata.NotAvailable,
		Overview:     fallbackOverview,
		FiftyDayMA:   marketdata.NotAvailable,
		Source:       "simulated",
		RetrievedAt:  time.Now().UTC(),
	}
}

func field(m map[string]string, key string) string {
	if v, ok := m[key]; ok && v != "" && v != "None" {
		return v
	}
	return marketdata.NotAvailable
}

func fieldDefault(m map[string]string, key, def string) string {
	if v, ok := m[key]; ok && v != "" && v != "None" {
		return v
	}
	return def
}

// normalizePrice rounds a price string to two decimal places. Unparseable
// values pass through unchanged so sentinels survive.
func normalizePrice(v string) string {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.Round(2).StringFixed(2)
}

// normalizeVolume renders a share count with thousands separators.
func normalizeVolume(v string) string {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	return humanize.Comma(n)
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
