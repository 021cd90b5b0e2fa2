package skillgraph

import (
	"fmt"
	"strings"
)

// validateNodes performs all structural checks on the given node set.
// Returns a combined error describing all problems found, or nil if valid.
// An empty node set is valid.
func validateNodes(nodes []SkillNode) error {
	var errs []string

	idSet := make(map[string]bool, len(nodes))

	// Check for empty and duplicate IDs
	for _, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			errs = append(errs, fmt.Sprintf("skill %q has an empty ID", n.Name))
			continue
		}
		if idSet[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate skill ID: %q", n.ID))
		}
		idSet[n.ID] = true
	}

	// Check for dangling, duplicate, and self-referencing prerequisites
	for _, n := range nodes {
		seen := make(map[string]bool, len(n.Prerequisites))
		for _, prereqID := range n.Prerequisites {
			switch {
			case prereqID == n.ID:
				errs = append(errs, fmt.Sprintf("skill %q lists itself as a prerequisite", n.ID))
			case !idSet[prereqID]:
				errs = append(errs, fmt.Sprintf("skill %q references nonexistent prerequisite %q", n.ID, prereqID))
			case seen[prereqID]:
				errs = append(errs, fmt.Sprintf("skill %q lists prerequisite %q twice", n.ID, prereqID))
			}
			seen[prereqID] = true
		}
	}

	// Check for cycles using Kahn's algorithm
	inDegree := make(map[string]int, len(nodes))
	adjList := make(map[string][]string)
	for _, n := range nodes {
		inDegree[n.ID] = len(n.Prerequisites)
		for _, prereqID := range n.Prerequisites {
			adjList[prereqID] = append(adjList[prereqID], n.ID)
		}
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if visited < len(inDegree) {
		var cycleNodes []string
		for _, n := range nodes {
			if inDegree[n.ID] > 0 {
				cycleNodes = append(cycleNodes, n.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving skills: %s", strings.Join(cycleNodes, ", ")))
	}

	// Check at least one root
	if len(nodes) > 0 {
		hasRoot := false
		for _, n := range nodes {
			if len(n.Prerequisites) == 0 {
				hasRoot = true
				break
			}
		}
		if !hasRoot {
			errs = append(errs, "no root skills found (at least one skill must have no prerequisites)")
		}
	}

	// Check node attributes
	for _, n := range nodes {
		if n.Difficulty < 0 || n.Difficulty > 1 {
			errs = append(errs, fmt.Sprintf("skill %q: difficulty must be in [0, 1], got %f", n.ID, n.Difficulty))
		}
		for _, m := range n.Misconceptions {
			if strings.TrimSpace(m.Tag) == "" {
				errs = append(errs, fmt.Sprintf("skill %q: misconception with empty tag", n.ID))
			}
			if _, err := ParseSeverity(string(m.Severity)); err != nil {
				errs = append(errs, fmt.Sprintf("skill %q: %v", n.ID, err))
			}
		}
		for mod, t := range n.Templates {
			if !mod.Valid() {
				errs = append(errs, fmt.Sprintf("skill %q: template for unknown modality %q", n.ID, mod))
			}
			// A lone choice cannot be answered wrong.
			if len(t.Choices) == 1 {
				errs = append(errs, fmt.Sprintf("skill %q: %s template has a single choice", n.ID, mod))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("skill graph validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
