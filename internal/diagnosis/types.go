package diagnosis

import (
	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Category classifies a wrong answer.
type Category string

const (
	CategoryCareless      Category = "careless"
	CategoryMisconception Category = "misconception"
	CategoryUnclassified  Category = "unclassified"
)

// Input is the context for diagnosing one wrong answer.
type Input struct {
	Node     skillgraph.SkillNode
	Exercise *contentgen.Exercise
	Answer   string

	// State is the node's mastery state before the answer is integrated.
	State mastery.State
}

// Result is the outcome of diagnosing a wrong answer.
type Result struct {
	Category Category `json:"category"`

	// Tag is set only for CategoryMisconception.
	Tag        string  `json:"tag,omitempty"`
	Confidence float64 `json:"confidence"`

	// Source is the classifier name, "llm", or "none".
	Source    string `json:"source"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Misconception reports whether r names one of the node's misconception
// tags.
func (r *Result) Misconception() bool {
	return r != nil && r.Category == CategoryMisconception && r.Tag != ""
}
