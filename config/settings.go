// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/richinex/scribe/internal/httpx"
	"github.com/richinex/scribe/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM        LLMConfig
	Notion     NotionConfig
	Confluence ConfluenceConfig
	Export     ExportConfig
}

// LLMConfig holds generation backend configuration. Primary is tried
// first; Fallbacks are tried in order when it fails.
type LLMConfig struct {
	Primary     string
	Fallbacks   []string
	MaxTokens   uint32
	Temperature float64
}

// Chain returns the ordered provider names the router should try.
func (c LLMConfig) Chain() []string {
	chain := make([]string, 0, 1+len(c.Fallbacks))
	chain = append(chain, c.Primary)
	for _, name := range c.Fallbacks {
		if name != c.Primary {
			chain = append(chain, name)
		}
	}
	return chain
}

// NotionConfig holds the Notion export target configuration.
type NotionConfig struct {
	Token      string
	BaseURL    string
	APIVersion string
	BlockCap   int
	// Pace is the minimum delay between append calls, derived from
	// NOTION_RPS. Zero means the delivery default.
	Pace time.Duration
}

// Configured reports whether the Notion target can be used.
func (c NotionConfig) Configured() bool {
	return c.Token != ""
}

// ConfluenceConfig holds the Confluence export target configuration.
type ConfluenceConfig struct {
	BaseURL   string
	Email     string
	APIToken  string
	SpaceKey  string
	SearchTTL time.Duration
}

// Configured reports whether the Confluence target can be used.
func (c ConfluenceConfig) Configured() bool {
	return c.BaseURL != "" && c.Email != "" && c.APIToken != ""
}

// ExportConfig holds the retry policy shared by both export targets.
type ExportConfig struct {
	Timeout   time.Duration
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Policy converts the retry knobs into a transport policy.
func (c ExportConfig) Policy() httpx.Policy {
	return httpx.Policy{
		Timeout:   c.Timeout,
		Attempts:  c.Attempts,
		BaseDelay: c.BaseDelay,
		MaxDelay:  c.MaxDelay,
	}
}

// New creates settings, loading values from environment variables. The
// primary argument overrides SCRIBE_PRIMARY_PROVIDER when non-empty; with
// neither set, anthropic is the primary. Returns an error if a provider
// name is unknown or an environment variable contains an invalid value.
func New(primary string) (Settings, error) {
	if primary == "" {
		primary = os.Getenv("SCRIBE_PRIMARY_PROVIDER")
	}
	if primary == "" {
		primary = "anthropic"
	}
	primary, err := normalizeProvider(primary)
	if err != nil {
		return Settings{}, err
	}

	fallbacks, err := parseFallbacks(getEnv("SCRIBE_FALLBACK_PROVIDERS", "openai"))
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	blockCap, err := getEnvInt("NOTION_BLOCK_CAP", 0)
	if err != nil {
		return Settings{}, err
	}
	rps, err := getEnvFloat64("NOTION_RPS", 0)
	if err != nil {
		return Settings{}, err
	}
	var pace time.Duration
	if rps > 0 {
		pace = time.Duration(float64(time.Second) / rps)
	}

	searchTTL, err := getEnvInt("CONFLUENCE_SEARCH_TTL", 0)
	if err != nil {
		return Settings{}, err
	}

	timeoutMS, err := getEnvInt("EXPORT_TIMEOUT_MS", 30000)
	if err != nil {
		return Settings{}, err
	}
	attempts, err := getEnvInt("EXPORT_RETRY_ATTEMPTS", 3)
	if err != nil {
		return Settings{}, err
	}
	baseDelayMS, err := getEnvInt("EXPORT_RETRY_BASE_DELAY_MS", 500)
	if err != nil {
		return Settings{}, err
	}
	maxDelayMS, err := getEnvInt("EXPORT_RETRY_MAX_DELAY_MS", 8000)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		LLM: LLMConfig{
			Primary:     primary,
			Fallbacks:   fallbacks,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Notion: NotionConfig{
			Token:      os.Getenv("NOTION_TOKEN"),
			BaseURL:    os.Getenv("NOTION_BASE_URL"),
			APIVersion: os.Getenv("NOTION_VERSION"),
			BlockCap:   blockCap,
			Pace:       pace,
		},
		Confluence: ConfluenceConfig{
			BaseURL:   os.Getenv("CONFLUENCE_BASE_URL"),
			Email:     os.Getenv("CONFLUENCE_EMAIL"),
			APIToken:  os.Getenv("CONFLUENCE_API_TOKEN"),
			SpaceKey:  os.Getenv("CONFLUENCE_SPACE"),
			SearchTTL: time.Duration(searchTTL) * time.Second,
		},
		Export: ExportConfig{
			Timeout:   time.Duration(timeoutMS) * time.Millisecond,
			Attempts:  attempts,
			BaseDelay: time.Duration(baseDelayMS) * time.Millisecond,
			MaxDelay:  time.Duration(maxDelayMS) * time.Millisecond,
		},
	}, nil
}

// MustNew creates settings. Panics if a provider is unknown or an
// environment variable is invalid. Use this only when configuration
// errors should be fatal.
func MustNew(primary string) Settings {
	settings, err := New(primary)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) (string, error) {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// parseFallbacks splits a comma-separated provider list and normalizes
// each entry.
func parseFallbacks(raw string) ([]string, error) {
	var fallbacks []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, err := normalizeProvider(part)
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, name)
	}
	return fallbacks, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		return "", err
	}
	key := os.Getenv(p.EnvVar())
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", p.EnvVar())
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking the provider's
// model environment variable first.
func ModelFor(provider string) (string, error) {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		return "", err
	}
	if val := os.Getenv(modelEnv(p)); val != "" {
		return val, nil
	}
	return p.DefaultModel(), nil
}

// modelEnv names the per-provider model override variable, e.g.
// ANTHROPIC_MODEL.
func modelEnv(p llm.Provider) string {
	return strings.ToUpper(p.String()) + "_MODEL"
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	return []string{"anthropic", "openai", "gemini", "deepseek"}
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
