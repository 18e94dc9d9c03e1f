package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the model provider. It is built once at
// startup and passed to NewProvider; nothing in this package reads the
// environment.
type Config struct {
	Provider string `mapstructure:"provider"`

	Gemini     VendorConfig `mapstructure:"gemini"`
	OpenAI     VendorConfig `mapstructure:"openai"`
	Anthropic  VendorConfig `mapstructure:"anthropic"`
	OpenRouter VendorConfig `mapstructure:"openrouter"`

	Retry RetryConfig `mapstructure:"retry"`

	// Timeout bounds a single logical request including retries.
	Timeout time.Duration `mapstructure:"timeout"`
}

// VendorConfig holds the credential and model for one vendor.
type VendorConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // optional endpoint override
}

// RetryConfig configures retries of transient failures. MaxAttempts of 1
// disables retrying.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns the defaults: Gemini 2.5 Flash, a single attempt,
// one-minute timeout.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Gemini:     VendorConfig{Model: "gemini-2.5-flash"},
		OpenAI:     VendorConfig{Model: "gpt-4o-mini"},
		Anthropic:  VendorConfig{Model: "claude-haiku"},
		OpenRouter: VendorConfig{Model: "google/gemini-2.5-flash", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// Vendor returns the settings of the selected provider.
func (c Config) Vendor() (VendorConfig, error) {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini, nil
	case ProviderOpenAI:
		return c.OpenAI, nil
	case ProviderAnthropic:
		return c.Anthropic, nil
	case ProviderOpenRouter:
		return c.OpenRouter, nil
	case ProviderMock:
		return VendorConfig{Model: "mock"}, nil
	default:
		return VendorConfig{}, fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}

// Validate checks that the selected provider has its credential.
func (c Config) Validate() error {
	v, err := c.Vendor()
	if err != nil {
		return err
	}
	if c.Provider != ProviderMock && v.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider (set IELTS_LLM_%s_API_KEY)",
			c.Provider, strings.ToUpper(c.Provider))
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
