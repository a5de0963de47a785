// Anthropic backend implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Rate-limit detail extraction from SDK errors

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	scriberr "github.com/richinex/scribe/errors"
)

// AnthropicBackend implements the Backend interface for Anthropic Claude.
type AnthropicBackend struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicBackend creates a new Anthropic backend.
func NewAnthropicBackend(apiKey, model string, maxTokens uint32, temperature float32) *AnthropicBackend {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicBackend{
		client:      client,
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: float64(temperature),
	}
}

// Name returns the backend name.
func (b *AnthropicBackend) Name() string {
	return "anthropic"
}

// Generate produces a markdown document via the Messages API.
func (b *AnthropicBackend) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   b.maxTokens,
		Temperature: anthropic.Float(b.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemInstruction(req.Mode)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	}

	message, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropicErr(err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(variant.Text)
		}
	}
	if content.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}

	return stripWrappingFence(content.String()), nil
}

// classifyAnthropicErr surfaces a rate-limit rejection with its wait hint
// when the SDK exposes one; everything else is wrapped with the backend
// name for the router's failure report.
func classifyAnthropicErr(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		rateLimit := &scriberr.RateLimitError{Detail: apiErr.Error()}
		if apiErr.Response != nil {
			if seconds, convErr := strconv.Atoi(strings.TrimSpace(apiErr.Response.Header.Get("Retry-After"))); convErr == nil && seconds >= 0 {
				rateLimit.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return rateLimit
	}
	return fmt.Errorf("anthropic: %w", err)
}

// Verify AnthropicBackend implements Backend
var _ Backend = (*AnthropicBackend)(nil)
