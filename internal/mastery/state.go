package mastery

import (
	"maps"
	"slices"
	"time"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Status is a coarse label for where a node sits in the mastery lifecycle.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusMastered Status = "mastered"
)

// State is the mastery estimate for one (user, thread, node) triple.
type State struct {
	NodeID             string
	MasteryProbability float64
	Uncertainty        float64
	Stability          float64

	// MisconceptionTags maps each active tag to the number of consecutive
	// clean passing attempts since it was last flagged.
	MisconceptionTags map[string]int

	EvidenceCount     int
	ConfirmationCount int

	// UnitTypesUsed counts attempts per modality.
	UnitTypesUsed map[skillgraph.Modality]int

	RequiresConfirmation   bool
	HasAppliedConfirmation bool

	NextReviewAt   *time.Time
	LastEvidenceAt *time.Time

	// Version is the optimistic concurrency token owned by the store.
	Version int64
}

// NewState returns the initial state for a node.
func NewState(cfg Config, nodeID string, requiresConfirmation bool) State {
	cfg = cfg.Normalize()
	return State{
		NodeID:               nodeID,
		MasteryProbability:   cfg.InitialProbability,
		Uncertainty:          cfg.InitialUncertainty,
		RequiresConfirmation: requiresConfirmation,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.MisconceptionTags = maps.Clone(s.MisconceptionTags)
	s.UnitTypesUsed = maps.Clone(s.UnitTypesUsed)
	if s.NextReviewAt != nil {
		t := *s.NextReviewAt
		s.NextReviewAt = &t
	}
	if s.LastEvidenceAt != nil {
		t := *s.LastEvidenceAt
		s.LastEvidenceAt = &t
	}
	return s
}

// Tags returns the active misconception tags, sorted.
func (s State) Tags() []string {
	return slices.Sorted(maps.Keys(s.MisconceptionTags))
}

// HasMisconceptions reports whether any misconception tag is active.
func (s State) HasMisconceptions() bool {
	return len(s.MisconceptionTags) > 0
}

// HasTag reports whether a tag is active.
func (s State) HasTag(tag string) bool {
	_, ok := s.MisconceptionTags[tag]
	return ok
}

// TimesUsed returns how many attempts used the modality.
func (s State) TimesUsed(m skillgraph.Modality) int {
	return s.UnitTypesUsed[m]
}

// ConfirmationPending reports whether the node requires a confirmation
// attempt that has not passed yet.
func (s State) ConfirmationPending() bool {
	return s.RequiresConfirmation && !s.HasAppliedConfirmation
}

// Normalized returns a copy with every numeric field clamped into its range.
func (s State) Normalized() State {
	s = s.Clone()
	s.MasteryProbability = clamp01(s.MasteryProbability)
	s.Uncertainty = clamp01(s.Uncertainty)
	s.Stability = clamp(s.Stability, 0, maxStability)
	if s.EvidenceCount < 0 {
		s.EvidenceCount = 0
	}
	if s.ConfirmationCount < 0 {
		s.ConfirmationCount = 0
	}
	return s
}

const maxStability = 1e6

// Transition records a status change caused by one piece of evidence.
type Transition struct {
	NodeID  string `json:"node_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Trigger string `json:"trigger"` // "first-attempt", "gate-passed", "gate-lost"
}
