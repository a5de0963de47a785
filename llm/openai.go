// OpenAI backend implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Shared with the DeepSeek backend, which speaks the same protocol

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	scriberr "github.com/richinex/scribe/errors"
)

// OpenAIBackend implements the Backend interface for OpenAI.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(apiKey, model string, maxTokens uint32, temperature float32) *OpenAIBackend {
	return &OpenAIBackend{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the backend name.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Generate produces a markdown document via the Chat Completions API.
func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	return completeChat(ctx, b.client, "openai", chatParams{
		model:       b.model,
		maxTokens:   b.maxTokens,
		temperature: b.temperature,
	}, req)
}

type chatParams struct {
	model       string
	maxTokens   int
	temperature float32
}

// completeChat runs one chat completion against an OpenAI-compatible API.
// name tags errors so router failure reports identify the backend even
// when two backends share this transport.
func completeChat(ctx context.Context, client *openai.Client, name string, params chatParams, req Request) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       params.model,
		MaxTokens:   params.maxTokens,
		Temperature: params.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction(req.Mode)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
	})
	if err != nil {
		return "", classifyOpenAIErr(name, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: empty response", name)
	}
	return stripWrappingFence(resp.Choices[0].Message.Content), nil
}

// classifyOpenAIErr surfaces rate-limit rejections through the shared
// taxonomy; go-openai does not expose the Retry-After header, so the hint
// stays absent.
func classifyOpenAIErr(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &scriberr.RateLimitError{Detail: fmt.Sprintf("%s: %s", name, apiErr.Message)}
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Verify OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)
