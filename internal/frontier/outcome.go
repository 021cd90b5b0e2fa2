package frontier

import "github.com/abhisek/skillpath/internal/skillgraph"

// Outcome describes the thread as seen from its frontier.
type Outcome string

const (
	// OutcomeActive means there is at least one node to work on.
	OutcomeActive Outcome = "active"

	// OutcomeBlocked means nothing is eligible although some node is not
	// mastered. This is a normal condition, not a fault.
	OutcomeBlocked Outcome = "blocked"

	// OutcomeComplete means every node is mastered. A graph with no nodes
	// is complete.
	OutcomeComplete Outcome = "complete"
)

// Classify distinguishes an exhausted frontier from a blocked one.
func Classify(g *skillgraph.Graph, mastered map[string]bool, entries []Entry) Outcome {
	if len(entries) > 0 {
		return OutcomeActive
	}
	for _, id := range g.IDs() {
		if !mastered[id] {
			return OutcomeBlocked
		}
	}
	return OutcomeComplete
}
