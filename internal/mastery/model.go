package mastery

import (
	"github.com/abhisek/skillpath/internal/spacedrep"
)

// Model bundles the constants and review scheduler used by the gate, the
// progress aggregator, and the evidence integrator. Its methods are pure:
// they never mutate their inputs and perform no I/O.
type Model struct {
	cfg   Config
	sched spacedrep.Scheduler
}

// NewModel creates a model. cfg is normalized.
func NewModel(cfg Config, sched spacedrep.Scheduler) *Model {
	return &Model{cfg: cfg.Normalize(), sched: sched}
}

// Config returns the normalized constants.
func (m *Model) Config() Config {
	return m.cfg
}

// Scheduler returns the review scheduler.
func (m *Model) Scheduler() spacedrep.Scheduler {
	return m.sched
}

// NewState returns the initial state for a node.
func (m *Model) NewState(nodeID string, requiresConfirmation bool) State {
	return NewState(m.cfg, nodeID, requiresConfirmation)
}

// StatusOf labels a state.
func (m *Model) StatusOf(s State, criticalTags []string) Status {
	switch {
	case m.CheckMastery(s, criticalTags).IsMastered:
		return StatusMastered
	case s.EvidenceCount == 0:
		return StatusNew
	default:
		return StatusLearning
	}
}
