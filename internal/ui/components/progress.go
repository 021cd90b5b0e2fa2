package components

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillpath/internal/ui/theme"
)

const (
	filledGlyph = "█"
	emptyGlyph  = "░"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// View renders the progress bar. The rendered width never exceeds Width
// unless Width is too small to hold the minimal bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	labelWidth := lipgloss.Width(result)
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}

	barWidth := p.Width - labelWidth - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := p.Percent
	if pct < 0 || math.IsNaN(pct) {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(float64(barWidth) * pct)
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(filledGlyph, filled))
	result += theme.ProgressEmpty.Render(strings.Repeat(emptyGlyph, empty))

	if p.ShowPercent {
		result += theme.Dim.Render(fmt.Sprintf("  %3d%%", int(pct*100)))
	}

	return result
}
