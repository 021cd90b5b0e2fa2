package contentgen

// Config controls LLM exercise generation.
type Config struct {
	MaxTokens   int     `koanf:"max_tokens" json:"max_tokens"`
	Temperature float64 `koanf:"temperature" json:"temperature"`

	// MaxAttempts bounds regeneration after a retryable validation failure.
	MaxAttempts int `koanf:"max_attempts" json:"max_attempts"`

	// Validators run in order; the first failure rejects the exercise.
	Validators []Validator `koanf:"-" json:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
		MaxAttempts: 2,
		Validators:  DefaultValidators(),
	}
}
