// Package views renders engine results for the terminal.
package views

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/tutor"
	"github.com/abhisek/skillpath/internal/ui/components"
	"github.com/abhisek/skillpath/internal/ui/layout"
	"github.com/abhisek/skillpath/internal/ui/theme"
)

// Status renders a thread's progress report: an overall bar followed by one
// row per node in graph order.
func Status(ts tutor.ThreadStatus, width int) string {
	width = layout.Width(width)
	p := ts.Progress

	var b strings.Builder
	b.WriteString(layout.RenderHeader(ts.Thread.Title, ts.Thread.ID, width))
	b.WriteString("\n")
	label := fmt.Sprintf("%d/%d mastered", p.MasteredNodes, p.TotalNodes)
	b.WriteString(components.NewProgressBar(label, p.OverallProgress, true, width).View())
	b.WriteString("\n\n")

	if len(ts.Nodes) == 0 {
		b.WriteString(theme.Hint.Render("This thread has no skills."))
		b.WriteString("\n")
		return b.String()
	}

	// indent, icon, gaps, status label, p, u, evidence count
	fixed := 2 + 2 + 2 + 9 + 2 + 6 + 2 + 6 + 2 + 5
	nameWidth := max(width-fixed, 10)

	for _, n := range ts.Nodes {
		style := statusStyle(n.Status)
		name := layout.Truncate(n.Name, nameWidth)
		b.WriteString(fmt.Sprintf("  %s %s  %s  %s  %s  %s\n",
			style.Render(statusIcon(n.Status)),
			theme.Body.Render(fmt.Sprintf("%-*s", nameWidth, name)),
			style.Render(fmt.Sprintf("%-9s", n.Status)),
			theme.Dim.Render(fmt.Sprintf("p %.2f", n.MasteryProbability)),
			theme.Dim.Render(fmt.Sprintf("u %.2f", n.Uncertainty)),
			theme.Dim.Render(fmt.Sprintf("n %-3d", n.EvidenceCount)),
		))

		if !n.Verdict.IsMastered && len(n.Verdict.Blockers) > 0 {
			b.WriteString(detail(theme.Dim, "blocked by", strings.Join(n.Verdict.Blockers, ", ")))
		}
		if len(n.Misconceptions) > 0 {
			b.WriteString(detail(theme.Warning, "misconceptions", strings.Join(n.Misconceptions, ", ")))
		}
		if n.NextReviewAt != nil {
			b.WriteString(detail(theme.Dim, "review", n.NextReviewAt.Local().Format("2006-01-02 15:04")))
		}
	}
	return b.String()
}

func detail(style lipgloss.Style, label, value string) string {
	return "      " + style.Render(label+": "+value) + "\n"
}

func statusStyle(s mastery.Status) lipgloss.Style {
	switch s {
	case mastery.StatusMastered:
		return lipgloss.NewStyle().Foreground(theme.Success)
	case mastery.StatusLearning:
		return lipgloss.NewStyle().Foreground(theme.Accent)
	default:
		return theme.Dim
	}
}

func statusIcon(s mastery.Status) string {
	switch s {
	case mastery.StatusMastered:
		return "●"
	case mastery.StatusLearning:
		return "◐"
	default:
		return "○"
	}
}
