package diagnosis

// Classifier is a rule that recognizes a kind of wrong answer without
// asking an LLM.
type Classifier interface {
	Name() string

	// Classify returns ok=false when the rule does not apply to in.
	Classify(in *Input) (cat Category, confidence float64, ok bool)
}

// DefaultClassifiers returns the built-in rules in priority order.
func DefaultClassifiers() []Classifier {
	return []Classifier{CarelessClassifier{}}
}

// RunClassifiers returns the result of the first rule that applies.
func RunClassifiers(classifiers []Classifier, in *Input) (*Result, bool) {
	for _, c := range classifiers {
		if cat, conf, ok := c.Classify(in); ok {
			return &Result{Category: cat, Confidence: conf, Source: c.Name()}, true
		}
	}
	return nil, false
}
