package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the content-generation provider.
type Config struct {
	Provider string `koanf:"provider" json:"provider"`

	Anthropic  AnthropicConfig  `koanf:"anthropic" json:"anthropic"`
	OpenAI     OpenAIConfig     `koanf:"openai" json:"openai"`
	Gemini     GeminiConfig     `koanf:"gemini" json:"gemini"`
	OpenRouter OpenRouterConfig `koanf:"openrouter" json:"openrouter"`
	Retry      RetryConfig      `koanf:"retry" json:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string `koanf:"api_key" json:"-"`
	Model   string `koanf:"model" json:"model"`
	BaseURL string `koanf:"base_url" json:"base_url,omitempty"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key" json:"-"`
	Model   string `koanf:"model" json:"model"`
	BaseURL string `koanf:"base_url" json:"base_url,omitempty"`
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key" json:"-"`
	Model   string `koanf:"model" json:"model"`
	BaseURL string `koanf:"base_url" json:"base_url,omitempty"`
}

type OpenRouterConfig struct {
	APIKey  string `koanf:"api_key" json:"-"`
	Model   string `koanf:"model" json:"model"`
	BaseURL string `koanf:"base_url" json:"base_url,omitempty"`
}

// RetryConfig controls backoff for transient provider failures.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" json:"max_attempts"`
	InitialWait time.Duration `koanf:"initial_wait" json:"initial_wait"`
	MaxWait     time.Duration `koanf:"max_wait" json:"max_wait"`
	Multiplier  float64       `koanf:"multiplier" json:"multiplier"`
}

// DefaultConfig uses the mock provider so a fresh install serves
// template exercises without any API key.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderMock,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// vendorKeys lists the conventional vendor env vars in discovery order.
var vendorKeys = []struct {
	env      string
	provider string
}{
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// DiscoverConfig probes the vendor env vars and returns a config for the
// first provider whose key is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, vk := range vendorKeys {
		if k := os.Getenv(vk.env); k != "" {
			cfg.Provider = vk.provider
			cfg.SetAPIKey(vk.provider, k)
			return cfg, true
		}
	}
	return Config{}, false
}

// FillKeys copies vendor env keys into any provider block that lacks one.
func (c *Config) FillKeys() {
	for _, vk := range vendorKeys {
		if c.APIKey(vk.provider) != "" {
			continue
		}
		if k := os.Getenv(vk.env); k != "" {
			c.SetAPIKey(vk.provider, k)
		}
	}
}

// APIKey returns the key configured for provider.
func (c Config) APIKey(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

func (c *Config) SetAPIKey(provider, key string) {
	switch provider {
	case ProviderAnthropic:
		c.Anthropic.APIKey = key
	case ProviderOpenAI:
		c.OpenAI.APIKey = key
	case ProviderGemini:
		c.Gemini.APIKey = key
	case ProviderOpenRouter:
		c.OpenRouter.APIKey = key
	}
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey(c.Provider) == "" {
			return fmt.Errorf("llm.%s.api_key is required for the %s provider", c.Provider, c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown llm provider: %q", c.Provider)
	}
}
