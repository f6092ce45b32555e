// Package predictor serves LSTM price predictions and sentiment-adjusted
// forecasts on top of the ml package.
package predictor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tradesage/internal/domain/marketdata"
	"tradesage/internal/ml"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

// historyDays of daily bars fetched per prediction; must leave at least
// SeqLen rows after the indicator warmup.
const historyDays = 100

// sentimentDays is how many trailing rows carry the news sentiment score.
const sentimentDays = 7

// PriceModel is the inference contract the service drives. Satisfied by
// ml.PriceModel.
type PriceModel interface {
	Predict(rows [][]float64) (float64, error)
}

// CandleSource supplies daily bars, oldest first.
type CandleSource interface {
	DailyCandles(ctx context.Context, symbol string, limit int) ([]marketdata.Candle, error)
}

// Prediction is a plain next-close forecast.
type Prediction struct {
	Ticker         string    `json:"ticker"`
	LastClose      float64   `json:"last_close"`
	PredictedClose float64   `json:"predicted_close"`
	MovePct        float64   `json:"move_pct"`
	Signal         string    `json:"signal"`
	Timestamp      time.Time `json:"timestamp"`
}

// RealtimeQuote is the latest market view with an attached forecast.
type RealtimeQuote struct {
	Ticker       string     `json:"ticker"`
	CurrentPrice float64    `json:"current_price"`
	DayChangePct float64    `json:"day_change_pct"`
	DayHigh      float64    `json:"day_high"`
	DayLow       float64    `json:"day_low"`
	Volume       float64    `json:"volume"`
	Prediction   Prediction `json:"prediction"`
}

// NewsAnalysis is a sentiment-adjusted forecast for a news prompt.
type NewsAnalysis struct {
	Ticker         string    `json:"ticker"`
	Prompt         string    `json:"user_prompt"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	LastClose      float64   `json:"last_close"`
	PredictedClose float64   `json:"predicted_close"`
	MovePct        float64   `json:"expected_move_pct"`
	Signal         string    `json:"signal"`
	Confidence     string    `json:"confidence"`
	Explanation    string    `json:"explanation"`
	Timestamp      time.Time `json:"timestamp"`
}

// Service runs the prediction flows. A nil model disables the service; all
// operations then return ErrPredictorDisabled.
type Service struct {
	model   PriceModel
	scaler  *ml.Scaler
	candles CandleSource
	log     *logger.Logger
}

// NewService creates the predictor service. model may be nil when the
// deployment ships without model artifacts.
func NewService(model PriceModel, scaler *ml.Scaler, candles CandleSource) *Service {
	return &Service{
		model:   model,
		scaler:  scaler,
		candles: candles,
		log:     logger.Get().With("component", "predictor"),
	}
}

// Enabled reports whether model artifacts are loaded.
func (s *Service) Enabled() bool {
	return s.model != nil && s.scaler != nil
}

// Predict forecasts the next close for a ticker.
func (s *Service) Predict(ctx context.Context, ticker string) (*Prediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	predicted, lastClose, err := s.forecast(ctx, ticker, 0)
	if err != nil {
		return nil, err
	}

	pct := (predicted - lastClose) / lastClose * 100
	return &Prediction{
		Ticker:         ticker,
		LastClose:      round2(lastClose),
		PredictedClose: round2(predicted),
		MovePct:        round2(pct),
		Signal:         signal(pct),
		Timestamp:      time.Now().UTC(),
	}, nil
}

// Realtime returns the latest bar plus a forecast.
func (s *Service) Realtime(ctx context.Context, ticker string) (*RealtimeQuote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !s.Enabled() {
		return nil, errors.ErrPredictorDisabled
	}

	bars, err := s.candles.DailyCandles(ctx, ticker, historyDays)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, errors.Wrapf(errors.ErrInsufficientData, "no data for %s", ticker)
	}

	predicted, lastClose, err := s.forecastFromBars(ticker, bars, 0)
	if err != nil {
		return nil, err
	}

	today := bars[len(bars)-1]
	dayChange := 0.0
	if today.Open != 0 {
		dayChange = (today.Close - today.Open) / today.Open * 100
	}
	pct := (predicted - lastClose) / lastClose * 100

	return &RealtimeQuote{
		Ticker:       ticker,
		CurrentPrice: round2(today.Close),
		DayChangePct: round2(dayChange),
		DayHigh:      round2(today.High),
		DayLow:       round2(today.Low),
		Volume:       today.Volume,
		Prediction: Prediction{
			Ticker:         ticker,
			LastClose:      round2(lastClose),
			PredictedClose: round2(predicted),
			MovePct:        round2(pct),
			Signal:         signal(pct),
			Timestamp:      time.Now().UTC(),
		},
	}, nil
}

// Analyze scores a news prompt and folds the sentiment into the forecast.
func (s *Service) Analyze(ctx context.Context, ticker, prompt string) (*NewsAnalysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	label, score := ml.ScoreSentiment(prompt)

	predicted, lastClose, err := s.forecast(ctx, ticker, score)
	if err != nil {
		return nil, err
	}
	pct := (predicted - lastClose) / lastClose * 100

	confidence := "HIGH"
	switch {
	case math.Abs(pct) > 100:
		confidence = "LOW (extreme move)"
	case math.Abs(pct) > 20:
		confidence = "MEDIUM"
	}

	direction := "UP"
	if pct < 0 {
		direction = "DOWN"
	}
	explanation := fmt.Sprintf("The model predicts a %.1f%% move %s due to ", math.Abs(pct), direction)
	if math.Abs(score) > 0.5 {
		tone := "strong bullish"
		if score < 0 {
			tone = "strong bearish"
		}
		explanation += fmt.Sprintf("%s sentiment in your prompt.", tone)
	} else {
		explanation += "technical patterns and momentum."
	}

	return &NewsAnalysis{
		Ticker:         ticker,
		Prompt:         prompt,
		Sentiment:      label,
		SentimentScore: round3(score),
		LastClose:      round2(lastClose),
		PredictedClose: round2(predicted),
		MovePct:        round2(pct),
		Signal:         signal(pct),
		Confidence:     confidence,
		Explanation:    explanation,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// forecast fetches history and runs one inference.
func (s *Service) forecast(ctx context.Context, ticker string, sentiment float64) (predicted, lastClose float64, err error) {
	if !s.Enabled() {
		return 0, 0, errors.ErrPredictorDisabled
	}
	if ticker == "" {
		return 0, 0, errors.ErrInvalidSymbol
	}

	bars, err := s.candles.DailyCandles(ctx, ticker, historyDays)
	if err != nil {
		return 0, 0, err
	}
	return s.forecastFromBars(ticker, bars, sentiment)
}

func (s *Service) forecastFromBars(ticker string, bars []marketdata.Candle, sentiment float64) (predicted, lastClose float64, err error) {
	rows, err := ml.FeatureMatrix(bars, sentiment, sentimentDaysFor(sentiment))
	if err != nil {
		return 0, 0, err
	}
	if len(rows) < ml.SeqLen {
		return 0, 0, errors.Wrapf(errors.ErrInsufficientData,
			"%s has %d usable rows, need %d", ticker, len(rows), ml.SeqLen)
	}

	lastClose = bars[len(bars)-1].Close
	if lastClose == 0 {
		return 0, 0, errors.Wrapf(errors.ErrInsufficientData, "%s latest close is zero", ticker)
	}
	window := rows[len(rows)-ml.SeqLen:]
	window, err = s.scaler.Transform(window)
	if err != nil {
		return 0, 0, err
	}

	scaled, err := s.model.Predict(window)
	if err != nil {
		return 0, 0, err
	}
	predicted = s.scaler.InverseTransformClose(scaled)

	s.log.Debugw("forecast complete", "ticker", ticker, "last_close", lastClose, "predicted", predicted)
	return predicted, lastClose, nil
}

func sentimentDaysFor(sentiment float64) int {
	if sentiment == 0 {
		return 0
	}
	return sentimentDays
}

// signal buckets a predicted percentage move.
func signal(pct float64) string {
	switch {
	case pct > 5:
		return "STRONG_BUY"
	case pct > 2:
		return "BUY"
	case pct < -5:
		return "STRONG_SELL"
	case pct < -2:
		return "SELL"
	default:
		return "HOLD"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
