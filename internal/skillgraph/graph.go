package skillgraph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is an immutable skill DAG with precomputed indices, keyed by node ID.
type Graph struct {
	nodes      []SkillNode
	byID       map[string]*SkillNode
	position   map[string]int
	dependents map[string][]string
	ancestors  map[string][]string
	roots      []string
	topoOrder  []string
}

// NewGraph validates the nodes and builds all indices, including the
// topological order (Kahn's algorithm) and transitive ancestor sets.
// Node order is preserved as the graph's insertion order.
func NewGraph(nodes []SkillNode) (*Graph, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return buildGraph(nodes), nil
}

// buildGraph constructs the graph from an already validated slice of nodes.
func buildGraph(nodes []SkillNode) *Graph {
	gr := &Graph{
		nodes:      cloneNodes(nodes),
		byID:       make(map[string]*SkillNode, len(nodes)),
		position:   make(map[string]int, len(nodes)),
		dependents: make(map[string][]string),
		ancestors:  make(map[string][]string, len(nodes)),
	}

	for i := range gr.nodes {
		gr.byID[gr.nodes[i].ID] = &gr.nodes[i]
		gr.position[gr.nodes[i].ID] = i
	}

	// Reverse edges, in insertion order of the dependent.
	for i := range gr.nodes {
		for _, prereqID := range gr.nodes[i].Prerequisites {
			gr.dependents[prereqID] = append(gr.dependents[prereqID], gr.nodes[i].ID)
		}
		if len(gr.nodes[i].Prerequisites) == 0 {
			gr.roots = append(gr.roots, gr.nodes[i].ID)
		}
	}

	// Topological sort (Kahn's algorithm), seeded in insertion order for determinism.
	inDegree := make(map[string]int, len(gr.nodes))
	for i := range gr.nodes {
		inDegree[gr.nodes[i].ID] = len(gr.nodes[i].Prerequisites)
	}
	queue := slices.Clone(gr.roots)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		gr.topoOrder = append(gr.topoOrder, id)
		for _, depID := range gr.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	// Ancestors in topological order: every prerequisite is resolved first.
	for _, id := range gr.topoOrder {
		seen := make(map[string]bool)
		for _, prereqID := range gr.byID[id].Prerequisites {
			seen[prereqID] = true
			for _, a := range gr.ancestors[prereqID] {
				seen[a] = true
			}
		}
		anc := make([]string, 0, len(seen))
		for a := range seen {
			anc = append(anc, a)
		}
		sort.Slice(anc, func(i, j int) bool { return gr.position[anc[i]] < gr.position[anc[j]] })
		gr.ancestors[id] = anc
	}

	return gr
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (SkillNode, bool) {
	n, ok := g.byID[id]
	if !ok {
		return SkillNode{}, false
	}
	return *n, true
}

// MustNode returns a node by ID or an error naming the missing ID.
func (g *Graph) MustNode(id string) (SkillNode, error) {
	n, ok := g.Node(id)
	if !ok {
		return SkillNode{}, fmt.Errorf("skill node not found: %q", id)
	}
	return n, nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []SkillNode {
	return cloneNodes(g.nodes)
}

// IDs returns all node IDs in insertion order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.nodes))
	for i := range g.nodes {
		ids[i] = g.nodes[i].ID
	}
	return ids
}

// Position returns the insertion index of a node, or -1 if unknown.
func (g *Graph) Position(id string) int {
	if p, ok := g.position[id]; ok {
		return p
	}
	return -1
}

// Edges returns every prerequisite edge, grouped by dependent in insertion order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for i := range g.nodes {
		for _, prereqID := range g.nodes[i].Prerequisites {
			edges = append(edges, Edge{From: prereqID, To: g.nodes[i].ID})
		}
	}
	return edges
}

// Prerequisites returns the direct prerequisite IDs of a node.
func (g *Graph) Prerequisites(id string) []string {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.Prerequisites)
}

// Dependents returns the IDs of nodes that list id as a direct prerequisite.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.dependents[id])
}

// DependentCount returns how many nodes list id as a direct prerequisite.
func (g *Graph) DependentCount(id string) int {
	return len(g.dependents[id])
}

// Ancestors returns every node reachable from id over incoming prerequisite
// edges, in insertion order.
func (g *Graph) Ancestors(id string) []string {
	return slices.Clone(g.ancestors[id])
}

// Roots returns the IDs of nodes with no prerequisites.
func (g *Graph) Roots() []string {
	return slices.Clone(g.roots)
}

// TopologicalOrder returns all node IDs in a valid topological order.
func (g *Graph) TopologicalOrder() []string {
	return slices.Clone(g.topoOrder)
}

// IsUnlocked returns true if every ancestor of the node is in the mastered set.
// Nodes with no prerequisites are always unlocked.
func (g *Graph) IsUnlocked(id string, mastered map[string]bool) bool {
	if _, ok := g.byID[id]; !ok {
		return false
	}
	for _, a := range g.ancestors[id] {
		if !mastered[a] {
			return false
		}
	}
	return true
}

// CriticalTags returns the critical misconception tags of a node.
func (g *Graph) CriticalTags(id string) []string {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	return n.CriticalTags()
}

// CriticalTagsByNode returns the critical misconception tags of every node
// that has at least one.
func (g *Graph) CriticalTagsByNode() map[string][]string {
	out := make(map[string][]string)
	for i := range g.nodes {
		if tags := g.nodes[i].CriticalTags(); len(tags) > 0 {
			out[g.nodes[i].ID] = tags
		}
	}
	return out
}

func cloneNodes(nodes []SkillNode) []SkillNode {
	out := make([]SkillNode, len(nodes))
	for i, n := range nodes {
		n.Prerequisites = slices.Clone(n.Prerequisites)
		n.Misconceptions = slices.Clone(n.Misconceptions)
		if n.Templates != nil {
			tmpl := make(map[Modality]AssessmentTemplate, len(n.Templates))
			for m, t := range n.Templates {
				t.Choices = slices.Clone(t.Choices)
				tmpl[m] = t
			}
			n.Templates = tmpl
		}
		out[i] = n
	}
	return out
}
