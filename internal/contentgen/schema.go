package contentgen

import "github.com/abhisek/skillpath/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strList(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

// ExerciseSchema constrains LLM exercise output. Every property is
// required and objects are closed, as strict structured-output modes need.
var ExerciseSchema = &llm.Schema{
	Name:        "skill-exercise",
	Description: "A single practice exercise with its answer key",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt":  str("The exercise shown to the learner, self-contained"),
			"choices": strList("Options for choice formats; empty for free-form formats"),
			"answer":  str("The correct answer; for choice formats the exact text of the correct option"),
			"answer_type": map[string]any{
				"type":        "string",
				"enum":        []any{"text", "integer", "decimal", "fraction"},
				"description": "How the answer should be compared",
			},
			"acceptable": strList("Alternative correct answers"),
			"rubric":     str("What a full-credit free-form answer contains; empty for choice formats"),
			"keywords":   strList("Key terms a correct free-form answer mentions; empty for choice formats"),
			"distractors": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"choice":        str("A wrong option, verbatim"),
						"misconception": str("The misconception tag this option reveals"),
					},
					"required":             []any{"choice", "misconception"},
					"additionalProperties": false,
				},
				"description": "Wrong options that reveal a listed misconception",
			},
			"hint":        str("A short scaffolding hint, or empty"),
			"explanation": str("A worked solution shown after the learner answers"),
			"estimated_seconds": map[string]any{
				"type":        "integer",
				"minimum":     5,
				"maximum":     1800,
				"description": "Expected time to answer",
			},
		},
		"required": []any{
			"prompt", "choices", "answer", "answer_type", "acceptable", "rubric",
			"keywords", "distractors", "hint", "explanation", "estimated_seconds",
		},
		"additionalProperties": false,
	},
}

// exerciseOutput mirrors ExerciseSchema.
type exerciseOutput struct {
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	AnswerType  string   `json:"answer_type"`
	Acceptable  []string `json:"acceptable"`
	Rubric      string   `json:"rubric"`
	Keywords    []string `json:"keywords"`
	Distractors []struct {
		Choice        string `json:"choice"`
		Misconception string `json:"misconception"`
	} `json:"distractors"`
	Hint             string `json:"hint"`
	Explanation      string `json:"explanation"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}
