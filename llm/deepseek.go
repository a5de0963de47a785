// DeepSeek backend implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL

package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekBackend implements the Backend interface for DeepSeek.
type DeepSeekBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewDeepSeekBackend creates a new DeepSeek backend.
func NewDeepSeekBackend(apiKey, model string, maxTokens uint32, temperature float32) *DeepSeekBackend {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekBackend{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the backend name.
func (b *DeepSeekBackend) Name() string {
	return "deepseek"
}

// Generate produces a markdown document via the OpenAI-compatible API.
func (b *DeepSeekBackend) Generate(ctx context.Context, req Request) (string, error) {
	return completeChat(ctx, b.client, "deepseek", chatParams{
		model:       b.model,
		maxTokens:   b.maxTokens,
		temperature: b.temperature,
	}, req)
}

// Verify DeepSeekBackend implements Backend
var _ Backend = (*DeepSeekBackend)(nil)
