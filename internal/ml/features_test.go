package ml

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesage/internal/domain/marketdata"
)

func syntheticCandles(n int) []marketdata.Candle {
	candles := make([]marketdata.Candle, n)
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		price := 100 + math.Sin(float64(i)/5)*10 + float64(i)*0.1
		candles[i] = marketdata.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   price - 0.5,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1_000_000 + float64(i%7)*50_000,
		}
	}
	return candles
}

func TestFeatureMatrix_Shape(t *testing.T) {
	candles := syntheticCandles(100)

	rows, err := FeatureMatrix(candles, 0, 0)
	require.NoError(t, err)

	assert.Len(t, rows, 100-warmup)
	for _, row := range rows {
		assert.Len(t, row, NumFeatures)
	}
}

func TestFeatureMatrix_InsufficientData(t *testing.T) {
	_, err := FeatureMatrix(syntheticCandles(warmup), 0, 0)
	assert.Error(t, err)
}

func TestFeatureMatrix_SentimentInjectedAtWindowEnd(t *testing.T) {
	candles := syntheticCandles(100)

	rows, err := FeatureMatrix(candles, 0.8, 7)
	require.NoError(t, err)

	last := len(rows) - 1
	sentimentCol := NumFeatures - 1
	for i := 0; i < 7; i++ {
		assert.Equal(t, 0.8, rows[last-i][sentimentCol], "row %d", last-i)
	}
	assert.Zero(t, rows[last-7][sentimentCol])
}

func TestFeatureMatrix_IndicatorsPopulated(t *testing.T) {
	candles := syntheticCandles(120)

	rows, err := FeatureMatrix(candles, 0, 0)
	require.NoError(t, err)

	// after warmup every indicator column should carry real values
	last := rows[len(rows)-1]
	ma7, ma30, rsi := last[6], last[7], last[8]
	assert.Greater(t, ma7, 0.0)
	assert.Greater(t, ma30, 0.0)
	assert.Greater(t, rsi, 0.0)
	assert.Less(t, rsi, 100.0)

	bbHigh, bbLow := last[10], last[11]
	assert.Greater(t, bbHigh, bbLow)
}

func TestRollingZScore(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	out := rollingZScore(flat, 3)
	for _, v := range out {
		assert.Zero(t, v, "flat series has no deviation")
	}

	values := []float64{1, 1, 1, 10}
	out = rollingZScore(values, 3)
	assert.Greater(t, out[3], 1.0, "spike must score far above the window mean")
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
	}{
		{"bullish prose", "Earnings beat expectations, strong growth and a broad rally.", SentimentPositive},
		{"bearish prose", "Revenue miss triggers downgrade as shares plunge.", SentimentNegative},
		{"neutral prose", "The company held its annual meeting on Tuesday.", SentimentNeutral},
		{"mixed prose balances out", "Strong quarter but guidance was weak.", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, score := ScoreSentiment(tt.text)
			assert.Equal(t, tt.label, label)
			if tt.label == SentimentNeutral {
				assert.Zero(t, score)
			}
		})
	}
}

func TestScaler_Transform(t *testing.T) {
	s := &Scaler{
		Scale: make([]float64, NumFeatures),
		Min:   make([]float64, NumFeatures),
	}
	for i := range s.Scale {
		s.Scale[i] = 2
		s.Min[i] = 1
	}

	rows := [][]float64{make([]float64, NumFeatures)}
	rows[0][0] = 3

	out, err := s.Transform(rows)
	require.NoError(t, err)
	assert.Equal(t, 7.0, out[0][0])
	assert.Equal(t, 1.0, out[0][1])
}

func TestScaler_InverseTransformClose(t *testing.T) {
	s := &Scaler{
		Scale: make([]float64, NumFeatures),
		Min:   make([]float64, NumFeatures),
	}
	s.Scale[3] = 0.01
	s.Min[3] = -1

	scaled := 150.0*s.Scale[3] + s.Min[3]
	assert.InDelta(t, 150.0, s.InverseTransformClose(scaled), 1e-9)
}
