// Package ai provides model client adapters for the analysis pipeline.
package ai

import "context"

// Generator is a single text-generation call. jsonMode requests strict
// JSON output from the provider; callers set it to match the extraction
// their response will go through.
type Generator interface {
	Generate(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Provider names accepted by the factory.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)
