// Package frontier ranks the skills a learner can work on next.
package frontier

import (
	"cmp"
	"slices"
	"time"

	"github.com/abhisek/skillpath/internal/exercise"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/spacedrep"
)

// Reason names the tier that placed a node on the frontier.
type Reason string

const (
	ReasonRemediation Reason = "remediation"
	ReasonReview      Reason = "review"
	ReasonGap         Reason = "gap"
)

func (r Reason) tier() int {
	switch r {
	case ReasonRemediation:
		return 2
	case ReasonReview:
		return 1
	default:
		return 0
	}
}

// Entry is one ranked frontier candidate. Entries are recomputed on demand
// and never persisted.
type Entry struct {
	NodeID            string              `json:"node_id"`
	State             mastery.State       `json:"-"`
	SuggestedUnitType skillgraph.Modality `json:"suggested_unit_type"`
	Priority          float64             `json:"priority"`
	Reason            Reason              `json:"reason"`
	Dependents        int                 `json:"dependents"`
}

// Selector computes the frontier.
type Selector struct {
	cfg   mastery.Config
	units *exercise.Selector
	now   func() time.Time
}

// NewSelector creates a frontier selector. now defaults to time.Now.
func NewSelector(cfg mastery.Config, units *exercise.Selector, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	if units == nil {
		units = exercise.NewSelector(cfg)
	}
	return &Selector{cfg: cfg.Normalize(), units: units, now: now}
}

// SelectFrontier returns every eligible node, best first. A node is
// eligible when it is not mastered and all of its transitive prerequisites
// are. Ordering, most significant first:
//  1. an active critical misconception (remediation)
//  2. a review that is due
//  3. lower mastery probability
//  4. more direct dependents
//  5. graph insertion order
//
// Nodes missing from byNode are treated as fresh.
func (s *Selector) SelectFrontier(g *skillgraph.Graph, byNode map[string]mastery.State, mastered map[string]bool) []Entry {
	now := s.now()
	entries := []Entry{}
	for _, id := range g.IDs() {
		if mastered[id] || !g.IsUnlocked(id, mastered) {
			continue
		}
		st, ok := byNode[id]
		if !ok {
			node, _ := g.Node(id)
			st = mastery.NewState(s.cfg, id, node.RequiresConfirmation())
		}
		st = st.Normalized()

		reason := ReasonGap
		switch {
		case mastery.HasCriticalMisconception(st, g.CriticalTags(id)):
			reason = ReasonRemediation
		case spacedrep.IsDue(st.NextReviewAt, now):
			reason = ReasonReview
		}

		entries = append(entries, Entry{
			NodeID:            id,
			State:             st,
			SuggestedUnitType: s.units.SelectUnitType(st),
			Priority:          float64(reason.tier())*2 + (1 - st.MasteryProbability),
			Reason:            reason,
			Dependents:        g.DependentCount(id),
		})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Reason.tier(), a.Reason.tier()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.State.MasteryProbability, b.State.MasteryProbability); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Dependents, a.Dependents); c != 0 {
			return c
		}
		return cmp.Compare(g.Position(a.NodeID), g.Position(b.NodeID))
	})
	return entries
}

// Head returns the top n entries.
func Head(entries []Entry, n int) []Entry {
	if n < 0 {
		n = 0
	}
	return entries[:min(n, len(entries))]
}
