package ai

import (
	"context"
	"time"

	genai "google.golang.org/genai"

	"tradesage/internal/metrics"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

// GeminiClient is a thin wrapper around the official genai client. One
// instance is safe for concurrent use.
type GeminiClient struct {
	cli     *genai.Client
	model   string
	limiter RateLimiter
	timeout time.Duration
	log     *logger.Logger
}

// NewGeminiClient creates a Gemini-backed generator.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, limiter RateLimiter) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiClient{
		cli:     cli,
		model:   model,
		limiter: limiter,
		timeout: timeout,
		log:     logger.Get().With("component", "gemini_client", "model", model),
	}, nil
}

// Generate sends one prompt and returns the raw response text. jsonMode
// switches the response MIME type to application/json.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.ModelCalls.WithLabelValues(ProviderGemini, mode(jsonMode), "rate_limited").Inc()
			return "", errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mimeType := "text/plain"
	if jsonMode {
		mimeType = "application/json"
	}

	start := time.Now()
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: mimeType},
	)
	metrics.ModelLatency.WithLabelValues(ProviderGemini).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelCalls.WithLabelValues(ProviderGemini, mode(jsonMode), "error").Inc()
		return "", errors.Wrap(err, "gemini API call failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		metrics.ModelCalls.WithLabelValues(ProviderGemini, mode(jsonMode), "empty").Inc()
		return "", errors.ErrModelEmptyResponse
	}

	metrics.ModelCalls.WithLabelValues(ProviderGemini, mode(jsonMode), "success").Inc()
	c.log.Debugw("model call complete", "json_mode", jsonMode, "latency", time.Since(start))
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func mode(jsonMode bool) string {
	if jsonMode {
		return "json"
	}
	return "text"
}
