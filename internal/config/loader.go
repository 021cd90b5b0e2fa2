package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const (
	envPrefix  = "SKILLPATH_"
	envConfig  = "SKILLPATH_CONFIG"
	envNesting = "__"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file at path, or at SKILLPATH_CONFIG when path is empty
//  3. env vars SKILLPATH_*, with "__" separating nested keys
//     (SKILLPATH_ENGINE__MASTERY_THRESHOLD -> engine.mastery_threshold)
//
// LLM keys missing from every layer are then taken from the vendor env
// vars (ANTHROPIC_API_KEY, ...).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg.LLM.FillKeys()
	cfg.Engine = cfg.Engine.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps SKILLPATH_RATE_LIMIT__WINDOW to rate_limit.window. The
// config file path variable is not a config key.
func envKey(s string) string {
	if s == envConfig {
		return ""
	}
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, envNesting, ".")
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ReviewScanInterval <= 0 {
		return fmt.Errorf("%w: review_scan_interval must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("%w: rate_limit.window must be positive", ErrInvalidConfig)
	}
	if c.Content.MaxTokens <= 0 {
		return fmt.Errorf("%w: content.max_tokens must be positive", ErrInvalidConfig)
	}
	if c.Diagnosis.MinConfidence < 0 || c.Diagnosis.MinConfidence > 1 {
		return fmt.Errorf("%w: diagnosis.min_confidence must be within [0,1]", ErrInvalidConfig)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
