package marketdata

import "time"

// Sentinel value used for fields the upstream feed did not provide.
const NotAvailable = "N/A"

// Snapshot is the current view of a symbol used by the research stage.
// Fields are kept as strings because the upstream feed reports them that
// way and any of them can be missing.
type Snapshot struct {
	Symbol       string    `json:"symbol"`
	CurrentPrice string    `json:"current_price"`
	Volume       string    `json:"volume"`
	WeekHigh     string    `json:"week_high"`
	WeekLow      string    `json:"week_low"`
	Overview     string    `json:"overview"`
	FiftyDayMA   string    `json:"fifty_day_ma"`
	Source       string    `json:"source"` // alpha_vantage or simulated
	RetrievedAt  time.Time `json:"retrieved_at"`
}

// Candle is a single daily OHLCV bar used for price prediction features.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}
