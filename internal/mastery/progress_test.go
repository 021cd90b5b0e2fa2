package mastery

import "testing"

func TestCalculateThreadProgress_Empty(t *testing.T) {
	m := newTestModel()
	got := m.CalculateThreadProgress(nil, nil)
	if got != (ThreadProgress{}) {
		t.Errorf("empty thread progress = %+v, want zero", got)
	}
}

func TestCalculateThreadProgress(t *testing.T) {
	m := newTestModel()
	states := []State{
		masteredState("a"),
		withTags(masteredState("b"), "off-by-one"),
		masteredState("c"),
		m.NewState("d", false),
	}
	critical := map[string][]string{"b": {"off-by-one"}}

	got := m.CalculateThreadProgress(states, critical)
	if got.TotalNodes != 4 {
		t.Errorf("TotalNodes = %d, want 4", got.TotalNodes)
	}
	if got.MasteredNodes != 2 {
		t.Errorf("MasteredNodes = %d, want 2", got.MasteredNodes)
	}
	if got.OverallProgress != 0.5 {
		t.Errorf("OverallProgress = %v, want 0.5", got.OverallProgress)
	}
	if got.MeanProgress <= 0 || got.MeanProgress >= 1 {
		t.Errorf("MeanProgress = %v, want in (0,1)", got.MeanProgress)
	}
}

func TestCalculateThreadProgress_OwnCriticalSet(t *testing.T) {
	m := newTestModel()
	// The tag is critical on b only, so a still counts as mastered.
	states := []State{withTags(masteredState("a"), "x"), withTags(masteredState("b"), "x")}
	got := m.CalculateThreadProgress(states, map[string][]string{"b": {"x"}})
	if got.MasteredNodes != 1 {
		t.Errorf("MasteredNodes = %d, want 1", got.MasteredNodes)
	}
}

func TestMasteredSet(t *testing.T) {
	m := newTestModel()
	set := m.MasteredSet(map[string]State{
		"a": masteredState("a"),
		"b": m.NewState("b", false),
	}, nil)
	if !set["a"] || set["b"] || len(set) != 1 {
		t.Errorf("MasteredSet = %v, want only a", set)
	}
}
