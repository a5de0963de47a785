// Security tests for generation backends to ensure error messages don't
// leak API keys, plus factory coverage.
package llm

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestOpenAIErrorNoAPIKeyLeak verifies OpenAI errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	// Use intentionally invalid API key
	testKey := "sk-test-invalid-key-12345xyz"
	backend := NewOpenAIBackend(testKey, ModelOpenAIGPT4oMini, 100, 0.7)

	// Force error with invalid key
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := backend.Generate(ctx, Request{Context: "test", Mode: ModeTask})

	// Should return an error
	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	// Verify error doesn't contain the API key
	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("OpenAI error message leaked API key: %v", errStr)
	}

	// Should not contain common auth header patterns
	if strings.Contains(errStr, "Authorization:") {
		t.Errorf("OpenAI error exposed Authorization header: %v", errStr)
	}
}

// TestAnthropicErrorNoAPIKeyLeak verifies Anthropic errors don't contain API keys
func TestAnthropicErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-ant-REDACTED"
	backend := NewAnthropicBackend(testKey, ModelAnthropicClaudeSonnet4, 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := backend.Generate(ctx, Request{Context: "test", Mode: ModeTask})

	if err == nil {
		t.Skip("Expected error with invalid API key, but got success - skipping leak test")
	}

	errStr := err.Error()
	if strings.Contains(errStr, testKey) {
		t.Errorf("Anthropic error message leaked API key: %v", errStr)
	}

	if strings.Contains(errStr, "x-api-key:") || strings.Contains(errStr, "X-API-Key:") {
		t.Errorf("Anthropic error exposed API key header: %v", errStr)
	}
}

// TestGeminiInitErrorPreserved verifies Gemini returns initialization errors
func TestGeminiInitErrorPreserved(t *testing.T) {
	backend := NewGeminiBackend("", ModelGeminiFlash3, 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := backend.Generate(ctx, Request{Context: "test", Mode: ModeTask})
	if err == nil {
		t.Fatal("expected initialization error to be returned, got nil")
	}
	if !strings.Contains(err.Error(), "initializing client") {
		t.Errorf("expected initialization error, got: %v", err)
	}
}

func TestParseProviderAliases(t *testing.T) {
	cases := map[string]Provider{
		"anthropic": ProviderAnthropic,
		"Claude":    ProviderAnthropic,
		"openai":    ProviderOpenAI,
		"gpt":       ProviderOpenAI,
		"gemini":    ProviderGemini,
		"google":    ProviderGemini,
		"deepseek":  ProviderDeepSeek,
	}
	for input, want := range cases {
		got, err := ParseProvider(input)
		if err != nil {
			t.Errorf("ParseProvider(%q): unexpected error %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseProvider(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseProvider("mystery"); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestNewBackendRequiresAPIKey(t *testing.T) {
	_, err := NewBackend(ProviderAnthropic, BackendConfig{})
	if err == nil {
		t.Fatal("expected an error without an API key")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("expected the env var named in the error, got %v", err)
	}
}

func TestNewBackendAppliesDefaults(t *testing.T) {
	backend, err := NewBackend(ProviderOpenAI, BackendConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Name() != "openai" {
		t.Errorf("unexpected backend %q", backend.Name())
	}
	concrete, ok := backend.(*OpenAIBackend)
	if !ok {
		t.Fatalf("expected *OpenAIBackend, got %T", backend)
	}
	if concrete.model != ModelOpenAIGPT52 {
		t.Errorf("expected default model, got %q", concrete.model)
	}
	if concrete.maxTokens != 4096 {
		t.Errorf("expected default max tokens, got %d", concrete.maxTokens)
	}
}
