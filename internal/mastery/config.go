package mastery

import "math"

// Default engine constants.
const (
	DefaultMasteryThreshold         = 0.8
	DefaultUncertaintyThreshold     = 0.2
	DefaultInitialProbability       = 0.5
	DefaultInitialUncertainty       = 1.0
	DefaultBaseLearningRate         = 0.35
	DefaultLearningRateDecay        = 0.15
	DefaultMinLearningRate          = 0.05
	DefaultUncertaintyRetention     = 0.8
	DefaultMisconceptionSpike       = 0.3
	DefaultMisconceptionClearStreak = 3
	DefaultPassScore                = 0.5
	DefaultMinFormatStrength        = 0.1
	DefaultStabilityLapseFactor     = 0.5
)

// Config holds the tunable constants of the mastery model. Zero fields are
// filled with defaults by Normalize, except LearningRateDecay and
// MisconceptionSpike where zero is a meaningful setting; for those only a
// negative or NaN value falls back to the default.
type Config struct {
	MasteryThreshold         float64 `koanf:"mastery_threshold" json:"mastery_threshold"`
	UncertaintyThreshold     float64 `koanf:"uncertainty_threshold" json:"uncertainty_threshold"`
	InitialProbability       float64 `koanf:"initial_probability" json:"initial_probability"`
	InitialUncertainty       float64 `koanf:"initial_uncertainty" json:"initial_uncertainty"`
	BaseLearningRate         float64 `koanf:"base_learning_rate" json:"base_learning_rate"`
	LearningRateDecay        float64 `koanf:"learning_rate_decay" json:"learning_rate_decay"`
	MinLearningRate          float64 `koanf:"min_learning_rate" json:"min_learning_rate"`
	UncertaintyRetention     float64 `koanf:"uncertainty_retention" json:"uncertainty_retention"`
	MisconceptionSpike       float64 `koanf:"misconception_spike" json:"misconception_spike"`
	MisconceptionClearStreak int     `koanf:"misconception_clear_streak" json:"misconception_clear_streak"`
	PassScore                float64 `koanf:"pass_score" json:"pass_score"`
	MinFormatStrength        float64 `koanf:"min_format_strength" json:"min_format_strength"`
	StabilityLapseFactor     float64 `koanf:"stability_lapse_factor" json:"stability_lapse_factor"`
}

// DefaultConfig returns the default model constants.
func DefaultConfig() Config {
	return Config{
		MasteryThreshold:         DefaultMasteryThreshold,
		UncertaintyThreshold:     DefaultUncertaintyThreshold,
		InitialProbability:       DefaultInitialProbability,
		InitialUncertainty:       DefaultInitialUncertainty,
		BaseLearningRate:         DefaultBaseLearningRate,
		LearningRateDecay:        DefaultLearningRateDecay,
		MinLearningRate:          DefaultMinLearningRate,
		UncertaintyRetention:     DefaultUncertaintyRetention,
		MisconceptionSpike:       DefaultMisconceptionSpike,
		MisconceptionClearStreak: DefaultMisconceptionClearStreak,
		PassScore:                DefaultPassScore,
		MinFormatStrength:        DefaultMinFormatStrength,
		StabilityLapseFactor:     DefaultStabilityLapseFactor,
	}
}

// Normalize fills unset fields with defaults and clamps the rest into the
// ranges the model relies on.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	orDefault := func(v, def float64) float64 {
		if v == 0 || math.IsNaN(v) {
			return def
		}
		return v
	}
	orDefaultKeepZero := func(v, def float64) float64 {
		if v < 0 || math.IsNaN(v) {
			return def
		}
		return v
	}

	c.MasteryThreshold = clamp01(orDefault(c.MasteryThreshold, d.MasteryThreshold))
	c.UncertaintyThreshold = clamp01(orDefault(c.UncertaintyThreshold, d.UncertaintyThreshold))
	c.InitialProbability = clamp01(orDefault(c.InitialProbability, d.InitialProbability))
	c.InitialUncertainty = clamp01(orDefault(c.InitialUncertainty, d.InitialUncertainty))
	c.BaseLearningRate = clamp(orDefault(c.BaseLearningRate, d.BaseLearningRate), 0, 1)
	c.LearningRateDecay = orDefaultKeepZero(c.LearningRateDecay, d.LearningRateDecay)
	c.MinLearningRate = clamp(orDefault(c.MinLearningRate, d.MinLearningRate), 0, c.BaseLearningRate)
	// Retention of exactly 1 would stop uncertainty from ever shrinking.
	c.UncertaintyRetention = clamp(orDefault(c.UncertaintyRetention, d.UncertaintyRetention), 0, 0.99)
	c.MisconceptionSpike = clamp01(orDefaultKeepZero(c.MisconceptionSpike, d.MisconceptionSpike))
	if c.MisconceptionClearStreak <= 0 {
		c.MisconceptionClearStreak = d.MisconceptionClearStreak
	}
	c.PassScore = clamp01(orDefault(c.PassScore, d.PassScore))
	c.MinFormatStrength = clamp01(orDefault(c.MinFormatStrength, d.MinFormatStrength))
	c.StabilityLapseFactor = clamp01(orDefault(c.StabilityLapseFactor, d.StabilityLapseFactor))
	return c
}

// LearningRate returns the update step for a state that has already seen
// evidenceCount attempts. It shrinks as evidence accumulates but never
// falls below MinLearningRate.
func (c Config) LearningRate(evidenceCount int) float64 {
	if evidenceCount < 0 {
		evidenceCount = 0
	}
	lr := c.BaseLearningRate / (1 + c.LearningRateDecay*float64(evidenceCount))
	return math.Max(c.MinLearningRate, lr)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
