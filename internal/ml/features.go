package ml

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"tradesage/internal/domain/marketdata"
	"tradesage/pkg/errors"
)

// warmup is the number of leading bars consumed by the longest indicator
// lookback (30-day moving averages and the volume z-score window).
const warmup = 30

// Feature column order the model was trained with.
var featureNames = []string{
	"open", "high", "low", "close", "volume",
	"return", "ma7", "ma30", "rsi", "macd",
	"bb_high", "bb_low", "vol_z", "sentiment",
}

// FeatureMatrix derives one row of model features per candle, dropping the
// warmup rows the indicators need to stabilize. sentiment is written into
// the last sentimentDays rows only, matching how the model was trained on
// news that affects the near end of the window.
func FeatureMatrix(candles []marketdata.Candle, sentiment float64, sentimentDays int) ([][]float64, error) {
	if len(candles) <= warmup {
		return nil, errors.Wrapf(errors.ErrInsufficientData,
			"need more than %d candles, got %d", warmup, len(candles))
	}

	n := len(candles)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range candles {
		open[i] = c.Open
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
		volume[i] = c.Volume
	}

	ma7 := talib.Sma(closes, 7)
	ma30 := talib.Sma(closes, 30)
	rsi := talib.Rsi(closes, 14)
	macd, _, _ := talib.Macd(closes, 12, 26, 9)
	bbHigh, _, bbLow := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
	volZ := rollingZScore(volume, 30)

	rows := make([][]float64, 0, n-warmup)
	for i := warmup; i < n; i++ {
		ret := 0.0
		if i > 0 && closes[i-1] != 0 {
			ret = (closes[i] - closes[i-1]) / closes[i-1]
		}

		score := 0.0
		if sentimentDays > 0 && i >= n-sentimentDays {
			score = sentiment
		}

		rows = append(rows, []float64{
			open[i], high[i], low[i], closes[i], volume[i],
			ret, ma7[i], ma30[i], rsi[i], macd[i],
			bbHigh[i], bbLow[i], volZ[i], score,
		})
	}
	return rows, nil
}

// rollingZScore computes (v - mean) / stddev over a trailing window, zero
// where the window is incomplete or flat.
func rollingZScore(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := window - 1; i < len(values); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)

		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(window))
		if std > 0 {
			out[i] = (values[i] - mean) / std
		}
	}
	return out
}
