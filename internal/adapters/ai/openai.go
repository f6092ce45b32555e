package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tradesage/internal/metrics"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

// OpenAIClient implements Generator using the official OpenAI Go SDK.
type OpenAIClient struct {
	client  openai.Client
	model   string
	limiter RateLimiter
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIClient creates an OpenAI-backed generator.
func NewOpenAIClient(apiKey, model string, timeout time.Duration, limiter RateLimiter) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIClient{
		client:  client,
		model:   model,
		limiter: limiter,
		timeout: timeout,
		log:     logger.Get().With("component", "openai_client", "model", model),
	}, nil
}

// Generate sends one prompt as a single user message. jsonMode switches the
// response format to the json_object constraint.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.ModelCalls.WithLabelValues(ProviderOpenAI, mode(jsonMode), "rate_limited").Inc()
			return "", errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	metrics.ModelLatency.WithLabelValues(ProviderOpenAI).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelCalls.WithLabelValues(ProviderOpenAI, mode(jsonMode), "error").Inc()
		return "", errors.Wrap(err, "openai API call failed")
	}
	if len(resp.Choices) == 0 {
		metrics.ModelCalls.WithLabelValues(ProviderOpenAI, mode(jsonMode), "empty").Inc()
		return "", errors.ErrModelEmptyResponse
	}

	metrics.ModelCalls.WithLabelValues(ProviderOpenAI, mode(jsonMode), "success").Inc()
	c.log.Debugw("model call complete", "json_mode", jsonMode, "latency", time.Since(start))
	return resp.Choices[0].Message.Content, nil
}
