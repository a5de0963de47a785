// Backend factory - maps provider names onto configured Backend values.

package llm

import (
	"fmt"
	"strings"
)

// Provider identifies a supported generation backend.
type Provider int

const (
	// ProviderAnthropic is the Anthropic backend (Claude models).
	ProviderAnthropic Provider = iota
	// ProviderOpenAI is the OpenAI backend (GPT models).
	ProviderOpenAI
	// ProviderGemini is the Google Gemini backend.
	ProviderGemini
	// ProviderDeepSeek is the DeepSeek backend.
	ProviderDeepSeek
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	switch p {
	case ProviderAnthropic:
		return "anthropic"
	case ProviderOpenAI:
		return "openai"
	case ProviderGemini:
		return "gemini"
	case ProviderDeepSeek:
		return "deepseek"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p Provider) EnvVar() string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderAnthropic:
		return ModelAnthropicClaudeOpus45
	case ProviderOpenAI:
		return ModelOpenAIGPT52
	case ProviderGemini:
		return ModelGeminiFlash3
	case ProviderDeepSeek:
		return ModelDeepSeekV32
	default:
		return ""
	}
}

// ParseProvider parses a provider from string (case-insensitive).
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// BackendConfig carries the per-backend knobs the factory applies.
// Zero-value fields fall back to the provider's defaults.
type BackendConfig struct {
	APIKey      string
	Model       string
	MaxTokens   uint32
	Temperature *float32
}

// NewBackend builds the backend for a provider. An empty API key is an
// error here rather than at call time so a misconfigured chain fails on
// startup, not mid-generation.
func NewBackend(p Provider, cfg BackendConfig) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", p, p.EnvVar())
	}

	model := cfg.Model
	if model == "" {
		model = p.DefaultModel()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	temperature := float32(0.7)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	switch p {
	case ProviderAnthropic:
		return NewAnthropicBackend(cfg.APIKey, model, maxTokens, temperature), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiBackend(cfg.APIKey, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekBackend(cfg.APIKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", p)
	}
}
