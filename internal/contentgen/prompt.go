package contentgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

const systemPrompt = `You write practice exercises for a single skill in a learner's skill graph.

Rules:
- Produce exactly one self-contained exercise in the requested format.
- flashcard: a short recall prompt with a one-line answer.
- multiple_choice: 3 to 6 distinct options, exactly one correct. Prefer distractors that reveal a listed misconception and report them in "distractors".
- fill_in: a sentence or expression with one blank; the answer fills the blank.
- short_answer and application: a free-form question; give a rubric and the key terms a correct answer mentions.
- remediation: target the learner's active misconceptions directly, with a hint that names the faulty reasoning.
- confirmation: a transfer task that proves mastery in an unfamiliar setting; no hint.
- Match difficulty to the learner's mastery estimate: lower estimates get more scaffolding.
- Leave fields that do not apply to the format empty rather than omitting them.`

// buildUserMessage describes the node, format and learner state.
func buildUserMessage(req Request) string {
	var b strings.Builder
	n := req.Node

	fmt.Fprintf(&b, "Skill: %s\n", n.Name)
	if n.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", n.Description)
	}
	fmt.Fprintf(&b, "Skill difficulty: %.2f\n", n.Difficulty)
	fmt.Fprintf(&b, "Format: %s\n", req.Modality)
	fmt.Fprintf(&b, "Mastery estimate: %.2f (uncertainty %.2f)\n",
		req.Mastery.MasteryProbability, req.Mastery.Uncertainty)

	b.WriteString("\nKnown misconceptions:\n")
	b.WriteString(numbered(misconceptionLines(n.Misconceptions)))

	b.WriteString("\nActive misconceptions for this learner:\n")
	b.WriteString(numbered(req.Mastery.Tags()))

	if t, ok := n.Template(req.Modality); ok {
		b.WriteString("\n\nAuthored example (vary it, do not copy):\n")
		b.WriteString(t.Prompt)
	}
	return b.String()
}

func misconceptionLines(ms []skillgraph.Misconception) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = fmt.Sprintf("%s (%s)", m.Tag, m.Severity)
	}
	return out
}

// numbered formats items as a 1-based list, or "None".
func numbered(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
