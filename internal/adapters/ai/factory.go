package ai

import (
	"context"

	"tradesage/internal/adapters/config"
	"tradesage/pkg/errors"
)

// NewGenerator builds the configured model client. The same limiter
// settings apply regardless of provider; free-tier Gemini allows 15
// requests per minute, which is the default.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	limiter := NewTokenBucketLimiter(cfg.Provider, float64(cfg.RequestsPerMinute), cfg.Burst)

	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.Timeout, limiter)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Timeout, limiter)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", cfg.Provider)
	}
}
