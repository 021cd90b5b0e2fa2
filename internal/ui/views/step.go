package views

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/frontier"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/tutor"
	"github.com/abhisek/skillpath/internal/ui/components"
	"github.com/abhisek/skillpath/internal/ui/layout"
	"github.com/abhisek/skillpath/internal/ui/theme"
)

// Step renders a recommendation and, when present, its exercise. g is used
// to show node names and may be nil.
func Step(st tutor.Step, g *skillgraph.Graph, width int) string {
	width = layout.Width(width)

	var b strings.Builder
	if st.Head == nil {
		b.WriteString(outcomeMessage(st.Outcome))
		b.WriteString("\n")
		return b.String()
	}

	head := st.Head
	b.WriteString(layout.KeyValue("Skill", nodeName(g, head.NodeID)) + "\n")
	b.WriteString(layout.KeyValue("Reason", string(head.Reason)) + "\n")
	b.WriteString(layout.KeyValue("Format", string(head.SuggestedUnitType)) + "\n")
	if len(st.Supporting) > 0 {
		names := make([]string, len(st.Supporting))
		for i, e := range st.Supporting {
			names[i] = nodeName(g, e.NodeID)
		}
		b.WriteString(layout.KeyValue("Up next", strings.Join(names, ", ")) + "\n")
	}

	if ex := st.Exercise; ex != nil {
		var card strings.Builder
		card.WriteString(theme.Body.Render(ex.Prompt))
		for i, c := range ex.Choices {
			card.WriteString(fmt.Sprintf("\n  %c) %s", 'a'+rune(i), c))
		}
		if ex.Hint != "" {
			card.WriteString("\n" + theme.Hint.Render("hint: "+ex.Hint))
		}
		b.WriteString("\n")
		b.WriteString(theme.Card.Width(width).Render(card.String()))
		b.WriteString("\n")
		b.WriteString(theme.Dim.Render(fmt.Sprintf("exercise %s  ~%ds", ex.ID, ex.EstimatedSeconds)))
		b.WriteString("\n")
	}
	return b.String()
}

// Result renders the outcome of a submitted attempt.
func Result(res tutor.Result, g *skillgraph.Graph, width int) string {
	width = layout.Width(width)

	var b strings.Builder
	if res.Passed {
		b.WriteString(theme.Correct.Render("✓ Correct"))
	} else {
		b.WriteString(theme.Incorrect.Render("✗ Not quite"))
	}
	b.WriteString("\n")

	if res.Answer != "" {
		b.WriteString(layout.KeyValue("Answer", res.Answer) + "\n")
	}
	if res.Explanation != "" {
		b.WriteString(theme.Hint.Render(res.Explanation) + "\n")
	}
	if d := res.Diagnosis; d.Misconception() {
		b.WriteString(theme.Warning.Render("misconception: "+d.Tag) + "\n")
	} else if d != nil && d.Category == diagnosis.CategoryCareless {
		b.WriteString(theme.Dim.Render("looks like a slip") + "\n")
	}

	b.WriteString(components.NewProgressBar(nodeName(g, res.NodeID), res.Verdict.Progress, true, width).View())
	b.WriteString("\n")

	if t := res.Transition; t != nil {
		line := fmt.Sprintf("%s: %s → %s", nodeName(g, t.NodeID), t.From, t.To)
		b.WriteString(statusStyle(t.To).Bold(true).Render(line))
		b.WriteString("\n")
	}
	if !res.Verdict.IsMastered && len(res.Verdict.Blockers) > 0 {
		b.WriteString(theme.Dim.Render("blocked by: " + strings.Join(res.Verdict.Blockers, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func outcomeMessage(o frontier.Outcome) string {
	switch o {
	case frontier.OutcomeComplete:
		return theme.Correct.Render("Every skill in this thread is mastered.")
	case frontier.OutcomeBlocked:
		return theme.Warning.Render("Nothing is eligible right now. Come back when reviews are due.")
	default:
		return theme.Dim.Render(string(o))
	}
}

