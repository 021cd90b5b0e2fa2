package contentgen

import (
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Request is everything a generator needs to author one exercise.
type Request struct {
	ThreadID string
	Node     skillgraph.SkillNode
	Modality skillgraph.Modality
	Mastery  mastery.State
}

// Source records which generator authored an exercise.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceTemplate Source = "template"
)

// Exercise is one attempt-ready unit of practice. Grading and Explanation
// stay server side until the learner has answered.
type Exercise struct {
	ID               string              `json:"id"`
	NodeID           string              `json:"node_id"`
	Modality         skillgraph.Modality `json:"modality"`
	Prompt           string              `json:"prompt"`
	Choices          []string            `json:"choices,omitempty"`
	Hint             string              `json:"hint,omitempty"`
	EstimatedSeconds int                 `json:"estimated_seconds"`
	FormatStrength   float64             `json:"format_strength"`
	Source           Source              `json:"source"`

	Grading     Grading `json:"-"`
	Explanation string  `json:"-"`
}

// AnswerType selects how free-form answers are normalized before matching.
type AnswerType string

const (
	AnswerTypeText     AnswerType = "text"
	AnswerTypeInteger  AnswerType = "integer"
	AnswerTypeDecimal  AnswerType = "decimal"
	AnswerTypeFraction AnswerType = "fraction"
)

// Grading is the answer key for an exercise.
type Grading struct {
	Answer     string
	AnswerType AnswerType

	// Acceptable lists alternative spellings that also count as correct.
	Acceptable []string

	// Rubric describes what a full-credit free-form answer contains.
	Rubric string

	// Keywords award partial credit on free-form modalities: the score is
	// the fraction of keywords present in the response.
	Keywords []string

	// Distractors maps a wrong choice to the misconception tag it reveals.
	Distractors map[string]string
}
