// Package exercise picks the modality of the next attempt on a skill.
package exercise

import (
	"math"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Selector chooses exercise modalities from mastery state.
type Selector struct {
	cfg        mastery.Config
	modalities []skillgraph.Modality
}

// NewSelector creates a selector over the practice modalities. cfg supplies
// the mastery and uncertainty thresholds for confirmation.
func NewSelector(cfg mastery.Config) *Selector {
	return &Selector{
		cfg:        cfg.Normalize(),
		modalities: skillgraph.PracticeModalities(),
	}
}

// WithModalities restricts practice selection to the given modalities, in
// preference order for ties. Invalid and special modalities are ignored; an
// empty result keeps the full practice set.
func (s *Selector) WithModalities(mods ...skillgraph.Modality) *Selector {
	var keep []skillgraph.Modality
	for _, m := range mods {
		if m.Valid() && m != skillgraph.ModalityRemediation && m != skillgraph.ModalityConfirmation {
			keep = append(keep, m)
		}
	}
	if len(keep) == 0 {
		keep = skillgraph.PracticeModalities()
	}
	return &Selector{cfg: s.cfg, modalities: keep}
}

// SelectUnitType returns the modality for the next attempt:
//   - remediation while any misconception tag is active,
//   - confirmation once the thresholds are met and confirmation is pending,
//   - otherwise the least used practice modality, ties broken by the
//     modality whose difficulty is closest to the mastery probability.
func (s *Selector) SelectUnitType(st mastery.State) skillgraph.Modality {
	if st.HasMisconceptions() {
		return skillgraph.ModalityRemediation
	}
	p := st.MasteryProbability
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Min(1, math.Max(0, p))
	u := math.Min(1, math.Max(0, st.Uncertainty))

	if st.ConfirmationPending() && p >= s.cfg.MasteryThreshold && u <= s.cfg.UncertaintyThreshold {
		return skillgraph.ModalityConfirmation
	}

	best := s.modalities[0]
	bestUses := st.TimesUsed(best)
	bestGap := math.Abs(best.Difficulty() - p)
	for _, m := range s.modalities[1:] {
		uses := st.TimesUsed(m)
		gap := math.Abs(m.Difficulty() - p)
		if uses < bestUses || (uses == bestUses && gap < bestGap) {
			best, bestUses, bestGap = m, uses, gap
		}
	}
	return best
}
