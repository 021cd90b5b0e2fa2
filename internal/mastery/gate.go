package mastery

import (
	"slices"
)

// Blocker codes reported by CheckMastery, in evaluation order.
const (
	BlockerLowMastery            = "low_mastery"
	BlockerLowConfidence         = "low_confidence"
	BlockerCriticalMisconception = "critical_misconception"
	BlockerConfirmationRequired  = "confirmation_required"
)

// Verdict is the outcome of the mastery gate for one state.
type Verdict struct {
	IsMastered bool     `json:"is_mastered"`
	Blockers   []string `json:"blockers"`
	Progress   float64  `json:"progress"`
}

// CheckMastery decides whether a state counts as mastered. criticalTags are
// the node's critical misconception tags. Blockers are listed in a fixed
// order: probability, uncertainty, critical misconceptions (sorted by tag),
// confirmation. Out-of-range fields are clamped first.
func (m *Model) CheckMastery(s State, criticalTags []string) Verdict {
	p := clamp01(s.MasteryProbability)
	u := clamp01(s.Uncertainty)

	blockers := []string{}
	if p < m.cfg.MasteryThreshold {
		blockers = append(blockers, BlockerLowMastery)
	}
	if u > m.cfg.UncertaintyThreshold {
		blockers = append(blockers, BlockerLowConfidence)
	}
	for _, tag := range activeCritical(s, criticalTags) {
		blockers = append(blockers, BlockerCriticalMisconception+":"+tag)
	}
	if s.ConfirmationPending() {
		blockers = append(blockers, BlockerConfirmationRequired)
	}

	return Verdict{
		IsMastered: len(blockers) == 0,
		Blockers:   blockers,
		Progress:   Progress(p, u),
	}
}

// Progress summarizes closeness to mastery as p * (1 - u), clamped to [0,1].
func Progress(masteryProbability, uncertainty float64) float64 {
	return clamp01(clamp01(masteryProbability) * (1 - clamp01(uncertainty)))
}

// activeCritical returns the sorted, deduplicated intersection of the
// state's active tags and the critical set.
func activeCritical(s State, criticalTags []string) []string {
	var out []string
	for _, tag := range criticalTags {
		if s.HasTag(tag) && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}

// HasCriticalMisconception reports whether any of the node's critical tags
// is active in the state.
func HasCriticalMisconception(s State, criticalTags []string) bool {
	for _, tag := range criticalTags {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}
