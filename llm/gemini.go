// Google Gemini backend implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config

package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend implements the Backend interface for Google Gemini.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	initErr     error // Stores client initialization error for deferred reporting
}

// NewGeminiBackend creates a new Gemini backend.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiBackend(apiKey, model string, maxTokens uint32, temperature float32) *GeminiBackend {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiBackend{
			model:       model,
			maxTokens:   int32(maxTokens),
			temperature: temperature,
			initErr:     fmt.Errorf("gemini: initializing client: %w", err),
		}
	}

	return &GeminiBackend{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: temperature,
	}
}

// Name returns the backend name.
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Generate produces a markdown document via the Gemini API.
func (b *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	if b.initErr != nil {
		return "", b.initErr
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(b.temperature),
		MaxOutputTokens:   b.maxTokens,
		SystemInstruction: genai.NewContentFromText(systemInstruction(req.Mode), genai.RoleUser),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt(req), genai.RoleUser),
	}

	response, err := b.client.Models.GenerateContent(ctx, b.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	content := response.Text()
	if content == "" {
		return "", fmt.Errorf("gemini: empty response")
	}

	return stripWrappingFence(content), nil
}

// Verify GeminiBackend implements Backend
var _ Backend = (*GeminiBackend)(nil)
