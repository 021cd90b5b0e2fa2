package mastery

import (
	"math"
	"strings"
	"time"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Evidence is one graded attempt.
type Evidence struct {
	Correct bool

	// Score is a partial score in [0,1]. When set it overrides Correct.
	Score *float64

	// Tags are the misconception tags the grader detected.
	Tags []string

	Modality skillgraph.Modality

	// FormatStrength discounts formats that are easy to guess. Zero means 1.
	FormatStrength float64

	Timestamp time.Time
}

// Value returns the attempt's score in [0,1].
func (e Evidence) Value() float64 {
	if e.Score != nil {
		return clamp01(*e.Score)
	}
	if e.Correct {
		return 1
	}
	return 0
}

// Passed reports whether the attempt counts as correct under cfg.
func (e Evidence) Passed(cfg Config) bool {
	return e.Value() >= cfg.Normalize().PassScore
}

func (e Evidence) weight(cfg Config) float64 {
	if e.FormatStrength == 0 || math.IsNaN(e.FormatStrength) {
		return 1
	}
	return clamp(e.FormatStrength, cfg.MinFormatStrength, 1)
}

// ApplyEvidence folds one attempt into a state and returns the next state.
// The input state is not modified.
func (m *Model) ApplyEvidence(s State, e Evidence) State {
	cfg := m.cfg
	next := s.Normalized()

	score := e.Value()
	passed := score >= cfg.PassScore
	w := e.weight(cfg)

	lr := cfg.LearningRate(next.EvidenceCount)
	next.MasteryProbability = clamp01(next.MasteryProbability + lr*w*(score-next.MasteryProbability))

	spiked := m.updateTags(&next, e.Tags, passed)
	next.Uncertainty *= cfg.UncertaintyRetention
	if spiked {
		next.Uncertainty = math.Min(1, next.Uncertainty+cfg.MisconceptionSpike)
	}
	next.Uncertainty = clamp01(next.Uncertainty)

	if passed {
		next.Stability += w * (1 + next.MasteryProbability)
	} else {
		next.Stability *= cfg.StabilityLapseFactor
	}
	next.Stability = clamp(next.Stability, 0, maxStability)

	next.EvidenceCount++
	if e.Modality != "" {
		if next.UnitTypesUsed == nil {
			next.UnitTypesUsed = make(map[skillgraph.Modality]int)
		}
		next.UnitTypesUsed[e.Modality]++
	}
	if e.Modality == skillgraph.ModalityConfirmation {
		next.ConfirmationCount++
		next.HasAppliedConfirmation = passed
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = m.sched.Current()
	}
	review := m.sched.NextReviewFrom(ts, next.MasteryProbability, passed)
	next.NextReviewAt = &review
	next.LastEvidenceAt = &ts

	return next
}

// updateTags flags newly detected tags and resets the streak of re-flagged
// ones. A passing attempt advances the clean streak of the rest; a failing
// one resets it.
// A tag is cleared once its streak reaches MisconceptionClearStreak.
// Returns true if any flagged tag was not already active.
func (m *Model) updateTags(s *State, flagged []string, passed bool) bool {
	seen := make(map[string]bool, len(flagged))
	spiked := false
	for _, raw := range flagged {
		tag := strings.TrimSpace(raw)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if s.MisconceptionTags == nil {
			s.MisconceptionTags = make(map[string]int)
		}
		if _, active := s.MisconceptionTags[tag]; !active {
			spiked = true
		}
		s.MisconceptionTags[tag] = 0
	}
	if !passed {
		for tag := range s.MisconceptionTags {
			s.MisconceptionTags[tag] = 0
		}
		return spiked
	}
	for tag, streak := range s.MisconceptionTags {
		if seen[tag] {
			continue
		}
		streak++
		if streak >= m.cfg.MisconceptionClearStreak {
			delete(s.MisconceptionTags, tag)
			continue
		}
		s.MisconceptionTags[tag] = streak
	}
	return spiked
}
