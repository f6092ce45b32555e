package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/internal/adapters/config"
	"tradesage/internal/domain/marketdata"
)

func testConfig(baseURL string) config.MarketDataConfig {
	return config.MarketDataConfig{
		AlphaVantageKey:   "test-key",
		BaseURL:           baseURL,
		Timeout:           5 * time.Second,
		CacheTTL:          time.Minute,
		RequestsPerMinute: 6000, // effectively unlimited for tests
	}
}

func marketDataServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			json.NewEncoder(w).Encode(map[string]any{
				"Global Quote": map[string]string{
					"01. symbol": "AAPL",
					"03. high":   "191.2000",
					"04. low":    "187.8000",
					"05. price":  "189.5000",
					"06. volume": "51200000",
				},
			})
		case "OVERVIEW":
			json.NewEncoder(w).Encode(map[string]string{
				"Description":        "Apple designs consumer electronics.",
				"50DayMovingAverage": "185.1000",
			})
		case "TIME_SERIES_DAILY":
			json.NewEncoder(w).Encode(map[string]any{
				"Time Series (Daily)": map[string]map[string]string{
					"2026-08-28": {"1. open": "188.0", "2. high": "191.2", "3. low": "187.8", "4. close": "189.5", "5. volume": "51200000"},
					"2026-08-27": {"1. open": "186.0", "2. high": "189.0", "3. low": "185.5", "4. close": "188.1", "5. volume": "48100000"},
					"2026-08-26": {"1. open": "185.0", "2. high": "187.0", "3. low": "184.2", "4. close": "186.3", "5. volume": "45900000"},
				},
			})
		default:
			json.NewEncoder(w).Encode(map[string]string{})
		}
	}))
}

func TestFetch_CombinesQuoteAndOverview(t *testing.T) {
	srv := marketDataServer(t)
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	snap := svc.Fetch(context.Background(), "aapl")

	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, "189.50", snap.CurrentPrice)
	assert.Equal(t, "51,200,000", snap.Volume)
	assert.Equal(t, "191.20", snap.WeekHigh)
	assert.Equal(t, "187.80", snap.WeekLow)
	assert.Equal(t, "185.10", snap.FiftyDayMA)
	assert.Equal(t, "Apple designs consumer electronics.", snap.Overview)
	assert.Equal(t, "alpha_vantage", snap.Source)
}

func TestFetch_FallbackWhenUpstreamEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	snap := svc.Fetch(context.Background(), "ZZZZ")

	assert.Equal(t, marketdata.NotAvailable, snap.CurrentPrice)
	assert.Equal(t, marketdata.NotAvailable, snap.FiftyDayMA)
	assert.Equal(t, "simulated", snap.Source)
	assert.Equal(t, fallbackOverview, snap.Overview)
}

func TestFetch_FallbackWhenUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	snap := svc.Fetch(context.Background(), "AAPL")

	assert.Equal(t, "simulated", snap.Source)
	assert.Equal(t, marketdata.NotAvailable, snap.Volume)
}

func TestFetch_FallbackWithoutAPIKey(t *testing.T) {
	cfg := testConfig("http://localhost:0")
	cfg.AlphaVantageKey = ""

	svc := NewService(cfg, nil)
	snap := svc.Fetch(context.Background(), "AAPL")

	assert.Equal(t, "simulated", snap.Source)
}

// memoryCache is a map-backed Cache for tests.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return assert.AnError
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = data
	return nil
}

func TestFetch_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			json.NewEncoder(w).Encode(map[string]any{
				"Global Quote": map[string]string{"05. price": "10.00", "06. volume": "100"},
			})
		default:
			json.NewEncoder(w).Encode(map[string]string{"Description": "Test company."})
		}
	}))
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), newMemoryCache())

	first := svc.Fetch(context.Background(), "TEST")
	second := svc.Fetch(context.Background(), "TEST")

	assert.Equal(t, first.CurrentPrice, second.CurrentPrice)
	assert.Equal(t, int32(2), hits.Load(), "second fetch must be served from cache")
}

func TestDailyCandles_SortedOldestFirst(t *testing.T) {
	srv := marketDataServer(t)
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	candles, err := svc.DailyCandles(context.Background(), "AAPL", 0)

	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.True(t, candles[0].Date.Before(candles[1].Date))
	assert.True(t, candles[1].Date.Before(candles[2].Date))
	assert.Equal(t, 189.5, candles[2].Close)
}

func TestDailyCandles_Limit(t *testing.T) {
	srv := marketDataServer(t)
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	candles, err := svc.DailyCandles(context.Background(), "AAPL", 2)

	require.NoError(t, err)
	require.Len(t, candles, 2)
	// the most recent bars are kept
	assert.Equal(t, 188.1, candles[0].Close)
	assert.Equal(t, 189.5, candles[1].Close)
}

func TestDailyCandles_ErrorOnEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	svc := NewService(testConfig(srv.URL), nil)
	_, err := svc.DailyCandles(context.Background(), "AAPL", 0)

	assert.Error(t, err)
}
