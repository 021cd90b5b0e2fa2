package skillgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DraftNode is an authored node that still carries a provisional ID.
type DraftNode struct {
	ID             string                          `json:"id" yaml:"id"`
	Name           string                          `json:"name" yaml:"name"`
	Description    string                          `json:"description" yaml:"description"`
	Difficulty     float64                         `json:"difficulty" yaml:"difficulty"`
	Prerequisites  []string                        `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Misconceptions []Misconception                 `json:"misconceptions,omitempty" yaml:"misconceptions,omitempty"`
	Templates      map[Modality]AssessmentTemplate `json:"templates,omitempty" yaml:"templates,omitempty"`
}

// Draft is a skill graph as authored or imported, before storage assigns
// real node IDs. Prerequisites may be given per node, as edges, or both.
type Draft struct {
	Title string      `json:"title" yaml:"title"`
	Nodes []DraftNode `json:"nodes" yaml:"nodes"`
	Edges []Edge      `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// IDMap is a bijection between provisional and storage-assigned node IDs.
// It is built once per thread and applied uniformly to nodes and edges.
type IDMap struct {
	toReal        map[string]string
	toProvisional map[string]string
}

// NewIDMap assigns a real ID to every provisional ID. assign is called once
// per provisional ID; a nil assign uses random UUIDs. Duplicate provisional
// IDs, empty IDs, and non-unique assigned IDs are rejected.
func NewIDMap(provisional []string, assign func() string) (*IDMap, error) {
	if assign == nil {
		assign = uuid.NewString
	}
	m := &IDMap{
		toReal:        make(map[string]string, len(provisional)),
		toProvisional: make(map[string]string, len(provisional)),
	}
	for _, p := range provisional {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("empty provisional node ID")
		}
		if _, dup := m.toReal[p]; dup {
			return nil, fmt.Errorf("duplicate provisional node ID %q", p)
		}
		assigned := assign()
		if _, dup := m.toProvisional[assigned]; dup {
			return nil, fmt.Errorf("assigned ID %q is not unique", assigned)
		}
		m.toReal[p] = assigned
		m.toProvisional[assigned] = p
	}
	return m, nil
}

// Len returns the number of mapped IDs.
func (m *IDMap) Len() int {
	return len(m.toReal)
}

// Real returns the storage ID for a provisional ID.
func (m *IDMap) Real(provisional string) (string, bool) {
	r, ok := m.toReal[provisional]
	return r, ok
}

// Provisional returns the provisional ID for a storage ID.
func (m *IDMap) Provisional(id string) (string, bool) {
	p, ok := m.toProvisional[id]
	return p, ok
}

// ProvisionalIDs returns the draft's node IDs in authored order.
func (d *Draft) ProvisionalIDs() []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Remap rewrites every node ID, prerequisite, and edge endpoint through the
// map. Edges are folded into the prerequisite lists of their target nodes.
// Any reference to an unmapped provisional ID is an error.
func (d *Draft) Remap(m *IDMap) ([]SkillNode, error) {
	var errs []string
	resolve := func(ctx, id string) string {
		r, ok := m.Real(id)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s references unknown node %q", ctx, id))
		}
		return r
	}

	extra := make(map[string][]string)
	for _, e := range d.Edges {
		extra[e.To] = append(extra[e.To], e.From)
	}

	nodes := make([]SkillNode, 0, len(d.Nodes))
	for _, dn := range d.Nodes {
		realID := resolve("node list", dn.ID)
		var prereqs []string
		for _, p := range append(slices.Clone(dn.Prerequisites), extra[dn.ID]...) {
			r := resolve(fmt.Sprintf("node %q", dn.ID), p)
			if r != "" && !slices.Contains(prereqs, r) {
				prereqs = append(prereqs, r)
			}
		}
		delete(extra, dn.ID)
		nodes = append(nodes, SkillNode{
			ID:             realID,
			Name:           dn.Name,
			Description:    dn.Description,
			Difficulty:     dn.Difficulty,
			Prerequisites:  prereqs,
			Misconceptions: slices.Clone(dn.Misconceptions),
			Templates:      dn.Templates,
		})
	}
	for to := range extra {
		errs = append(errs, fmt.Sprintf("edge targets unknown node %q", to))
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return nil, fmt.Errorf("remap draft:\n  %s", strings.Join(errs, "\n  "))
	}
	return nodes, nil
}

// Build assigns real IDs, remaps the draft, and validates the resulting graph.
// The engine only ever sees the returned Graph, never provisional IDs.
func (d *Draft) Build(assign func() string) (*Graph, *IDMap, error) {
	m, err := NewIDMap(d.ProvisionalIDs(), assign)
	if err != nil {
		return nil, nil, err
	}
	nodes, err := d.Remap(m)
	if err != nil {
		return nil, nil, err
	}
	g, err := NewGraph(nodes)
	if err != nil {
		return nil, nil, err
	}
	return g, m, nil
}

// Preview builds the draft keeping its provisional IDs, reporting the same
// problems Build would. Used to inspect authored graphs before a thread
// exists.
func (d *Draft) Preview() (*Graph, error) {
	ids := d.ProvisionalIDs()
	next := 0
	g, _, err := d.Build(func() string {
		id := ids[next]
		next++
		return id
	})
	return g, err
}
