package diagnosis

import "github.com/abhisek/skillpath/internal/llm"

// DiagnosisSchema constrains the LLM's answer to one of the candidate tags
// or null.
var DiagnosisSchema = &llm.Schema{
	Name:        "error-diagnosis",
	Description: "Classification of a wrong answer against the skill's known misconceptions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"misconception_tag": map[string]any{
				"type":        []any{"string", "null"},
				"description": "Tag copied from the candidate list, or null when none fits",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "How strongly the learner answer shows the chosen misconception",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence tying the learner answer to the tag, or explaining why no tag fits",
			},
		},
		"required":             []any{"misconception_tag", "confidence", "reasoning"},
		"additionalProperties": false,
	},
}
