package contentgen

import (
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// defaultStrength is the evidential weight of each modality before any
// guessing discount.
var defaultStrength = map[skillgraph.Modality]float64{
	skillgraph.ModalityFlashcard:      0.5,
	skillgraph.ModalityMultipleChoice: 0.7,
	skillgraph.ModalityFillIn:         0.8,
	skillgraph.ModalityShortAnswer:    0.9,
	skillgraph.ModalityApplication:    1.0,
	skillgraph.ModalityRemediation:    0.8,
	skillgraph.ModalityConfirmation:   1.0,
}

// FormatStrength returns how much a correct answer in modality m with the
// given number of choices says about mastery. Any exercise offering
// choices is capped at 1 - 1/len(choices). The result never drops below
// mastery.DefaultMinFormatStrength, since a zero strength reads as unset.
func FormatStrength(m skillgraph.Modality, choices int) float64 {
	s, ok := defaultStrength[m]
	if !ok {
		s = 0.5
	}
	if choices > 0 {
		s = min(s, 1-1/float64(choices))
	}
	return max(s, mastery.DefaultMinFormatStrength)
}

// estimatedSeconds is the fallback time budget per modality.
func estimatedSeconds(m skillgraph.Modality) int {
	switch m {
	case skillgraph.ModalityFlashcard:
		return 15
	case skillgraph.ModalityMultipleChoice:
		return 30
	case skillgraph.ModalityFillIn:
		return 45
	case skillgraph.ModalityShortAnswer, skillgraph.ModalityRemediation:
		return 90
	default:
		return 180
	}
}
