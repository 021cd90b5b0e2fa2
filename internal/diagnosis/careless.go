package diagnosis

const (
	// CarelessMasteryThreshold is the mastery probability (exclusive) above
	// which a wrong answer is treated as a slip.
	CarelessMasteryThreshold = 0.80

	// CarelessMinEvidence keeps a fresh prior from passing as a track record.
	CarelessMinEvidence = 3
)

// CarelessClassifier flags wrong answers on well-established skills as
// careless slips rather than knowledge gaps.
type CarelessClassifier struct{}

func (CarelessClassifier) Name() string { return "careless" }

func (CarelessClassifier) Classify(in *Input) (Category, float64, bool) {
	st := in.State
	if st.EvidenceCount < CarelessMinEvidence || st.MasteryProbability <= CarelessMasteryThreshold {
		return "", 0, false
	}
	return CategoryCareless, st.MasteryProbability, true
}
