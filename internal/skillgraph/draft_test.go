package skillgraph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func counterAssign(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func sampleDraft() *Draft {
	return &Draft{
		Title: "fractions",
		Nodes: []DraftNode{
			{ID: "n1", Name: "Unit fractions", Difficulty: 0.2},
			{ID: "n2", Name: "Equivalent fractions", Difficulty: 0.5, Prerequisites: []string{"n1"}},
			{ID: "n3", Name: "Adding fractions", Difficulty: 0.7,
				Misconceptions: []Misconception{{Tag: "add-denominators", Severity: SeverityCritical}}},
		},
		Edges: []Edge{{From: "n2", To: "n3"}, {From: "n1", To: "n2"}},
	}
}

func TestNewIDMap_Bijection(t *testing.T) {
	m, err := NewIDMap([]string{"x", "y"}, counterAssign("real"))
	if err != nil {
		t.Fatalf("NewIDMap: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	for _, p := range []string{"x", "y"} {
		r, ok := m.Real(p)
		if !ok {
			t.Fatalf("no real ID for %q", p)
		}
		back, ok := m.Provisional(r)
		if !ok || back != p {
			t.Errorf("Provisional(Real(%q)) = %q, want %q", p, back, p)
		}
	}
}

func TestNewIDMap_Rejects(t *testing.T) {
	if _, err := NewIDMap([]string{"x", "x"}, nil); err == nil {
		t.Error("expected error for duplicate provisional IDs")
	}
	if _, err := NewIDMap([]string{""}, nil); err == nil {
		t.Error("expected error for empty provisional ID")
	}
	same := func() string { return "fixed" }
	if _, err := NewIDMap([]string{"x", "y"}, same); err == nil {
		t.Error("expected error for non-unique assigned IDs")
	}
}

func TestNewIDMap_DefaultsToUUID(t *testing.T) {
	m, err := NewIDMap([]string{"x"}, nil)
	if err != nil {
		t.Fatalf("NewIDMap: %v", err)
	}
	r, _ := m.Real("x")
	if len(r) != 36 {
		t.Errorf("expected UUID, got %q", r)
	}
}

func TestDraft_Build(t *testing.T) {
	g, m, err := sampleDraft().Build(counterAssign("s"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"s-1", "s-2", "s-3"}, g.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	// n1 appears both inline and as an edge on n2; it must be stored once.
	if diff := cmp.Diff([]string{"s-1"}, g.Prerequisites("s-2")); diff != "" {
		t.Errorf("Prerequisites(s-2) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"s-2"}, g.Prerequisites("s-3")); diff != "" {
		t.Errorf("Prerequisites(s-3) mismatch (-want +got):\n%s", diff)
	}
	if p, _ := m.Provisional("s-3"); p != "n3" {
		t.Errorf("Provisional(s-3) = %q, want n3", p)
	}
	if diff := cmp.Diff([]string{"add-denominators"}, g.CriticalTags("s-3")); diff != "" {
		t.Errorf("critical tags lost in remap (-want +got):\n%s", diff)
	}
}

func TestDraft_Remap_UnknownReferences(t *testing.T) {
	d := sampleDraft()
	d.Nodes[1].Prerequisites = append(d.Nodes[1].Prerequisites, "ghost")
	d.Edges = append(d.Edges, Edge{From: "n1", To: "nowhere"})

	_, _, err := d.Build(counterAssign("s"))
	if err == nil {
		t.Fatal("expected remap error")
	}
	for _, want := range []string{`"ghost"`, `"nowhere"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDraft_Build_RejectsCycle(t *testing.T) {
	d := sampleDraft()
	d.Edges = append(d.Edges, Edge{From: "n3", To: "n1"})
	if _, _, err := d.Build(nil); err == nil {
		t.Fatal("expected cycle to be rejected")
	}
}

func TestDraft_Preview_KeepsProvisionalIDs(t *testing.T) {
	g, err := sampleDraft().Preview()
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if diff := cmp.Diff([]string{"n1", "n2", "n3"}, g.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"n2"}, g.Prerequisites("n3")); diff != "" {
		t.Errorf("Prerequisites(n3) mismatch (-want +got):\n%s", diff)
	}

	d := sampleDraft()
	d.Nodes = append(d.Nodes, DraftNode{ID: "n1", Name: "again"})
	if _, err := d.Preview(); err == nil {
		t.Fatal("expected duplicate ID to be rejected")
	}
}
