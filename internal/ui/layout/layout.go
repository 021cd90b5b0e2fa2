package layout

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillpath/internal/ui/theme"
)

const (
	MinWidth     = 60
	MaxWidth     = 120
	DefaultWidth = 80

	labelWidth = 12
)

// Width clamps a requested output width. Zero or negative selects
// DefaultWidth.
func Width(w int) int {
	switch {
	case w <= 0:
		return DefaultWidth
	case w < MinWidth:
		return MinWidth
	case w > MaxWidth:
		return MaxWidth
	}
	return w
}

// RenderHeader renders a title on the left, an optional note on the right,
// and a divider underneath, all within width.
func RenderHeader(title, note string, width int) string {
	left := theme.Title.Render(title)
	right := theme.Dim.Render(note)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n" + Divider(width)
}

// Divider renders a horizontal rule.
func Divider(width int) string {
	if width < 1 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width))
}

// KeyValue renders an aligned "label  value" line.
func KeyValue(label, value string) string {
	return theme.Dim.Render(padRight(label+":", labelWidth)) + theme.Body.Render(value)
}

// Truncate shortens s to at most width cells, marking the cut with an
// ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s + " "
}
