package views

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/ui/layout"
	"github.com/abhisek/skillpath/internal/ui/theme"
)

// MapOptions configures SkillMap.
type MapOptions struct {
	Title string

	// Statuses colors nodes by mastery status. Nodes without an entry are
	// drawn as new.
	Statuses map[string]mastery.Status

	ShowIDs bool
	Width   int
}

// SkillMap renders a graph in topological order. Each node is indented by
// its depth, the length of the longest prerequisite chain leading to it,
// and lists its direct prerequisites by name.
func SkillMap(g *skillgraph.Graph, opts MapOptions) string {
	width := layout.Width(opts.Width)

	var b strings.Builder
	note := fmt.Sprintf("%d skills", g.Len())
	b.WriteString(layout.RenderHeader(opts.Title, note, width))
	b.WriteString("\n")

	order := g.TopologicalOrder()
	depth := make(map[string]int, len(order))
	for _, id := range order {
		for _, p := range g.Prerequisites(id) {
			depth[id] = max(depth[id], depth[p]+1)
		}
	}

	for _, id := range order {
		node, _ := g.Node(id)
		status := opts.Statuses[id]
		if status == "" {
			status = mastery.StatusNew
		}
		style := statusStyle(status)

		indent := strings.Repeat("  ", depth[id]+1)
		line := indent + style.Render(statusIcon(status)) + " " + theme.Body.Render(node.Name)
		if tags := node.CriticalTags(); len(tags) > 0 {
			line += theme.Warning.Render(fmt.Sprintf(" !%d", len(tags)))
		}
		if node.RequiresConfirmation() {
			line += theme.Dim.Render(" ✓")
		}
		if opts.ShowIDs {
			line += theme.Dim.Render("  " + id)
		}
		b.WriteString(line)
		b.WriteString("\n")

		if prereqs := g.Prerequisites(id); len(prereqs) > 0 {
			names := make([]string, len(prereqs))
			for i, p := range prereqs {
				names[i] = nodeName(g, p)
			}
			after := layout.Truncate("← "+strings.Join(names, ", "), max(width-len(indent)-2, 10))
			b.WriteString(indent + "  " + theme.Dim.Render(after) + "\n")
		}
	}
	return b.String()
}

func nodeName(g *skillgraph.Graph, id string) string {
	if g == nil {
		return id
	}
	if n, ok := g.Node(id); ok && n.Name != "" {
		return n.Name
	}
	return id
}
