package diagnosis

import "time"

// Config controls wrong-answer diagnosis.
type Config struct {
	Enabled bool `koanf:"enabled" json:"enabled"`

	MaxTokens   int     `koanf:"max_tokens" json:"max_tokens"`
	Temperature float64 `koanf:"temperature" json:"temperature"`

	// MinConfidence is the lowest LLM confidence that still flags a tag.
	MinConfidence float64 `koanf:"min_confidence" json:"min_confidence"`

	// Timeout bounds the LLM call made while an answer is being submitted.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MaxTokens:     256,
		Temperature:   0.3,
		MinConfidence: 0.6,
		Timeout:       10 * time.Second,
	}
}
