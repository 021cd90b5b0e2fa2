package skillgraph

import "fmt"

// Modality is an exercise format a skill can be assessed with.
type Modality string

const (
	ModalityFlashcard      Modality = "flashcard"
	ModalityMultipleChoice Modality = "multiple_choice"
	ModalityFillIn         Modality = "fill_in"
	ModalityShortAnswer    Modality = "short_answer"
	ModalityApplication    Modality = "application"

	// ModalityRemediation targets the learner's active misconceptions.
	ModalityRemediation Modality = "remediation"

	// ModalityConfirmation is the single attempt that can finalize mastery.
	ModalityConfirmation Modality = "confirmation"
)

// PracticeModalities returns the general-purpose modalities, easiest first.
func PracticeModalities() []Modality {
	return []Modality{
		ModalityFlashcard,
		ModalityMultipleChoice,
		ModalityFillIn,
		ModalityShortAnswer,
		ModalityApplication,
	}
}

// Difficulty returns the relative cognitive load of a modality in [0,1].
// Recall-style formats are low, generative/application formats are high.
func (m Modality) Difficulty() float64 {
	switch m {
	case ModalityFlashcard:
		return 0.1
	case ModalityMultipleChoice:
		return 0.3
	case ModalityFillIn:
		return 0.5
	case ModalityShortAnswer:
		return 0.7
	case ModalityApplication:
		return 0.9
	case ModalityRemediation:
		return 0.4
	case ModalityConfirmation:
		return 1.0
	default:
		return 0.5
	}
}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	switch m {
	case ModalityFlashcard, ModalityMultipleChoice, ModalityFillIn,
		ModalityShortAnswer, ModalityApplication,
		ModalityRemediation, ModalityConfirmation:
		return true
	}
	return false
}

// Severity grades how badly a misconception undermines a skill.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// ParseSeverity parses a severity label. Empty input defaults to minor.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case "":
		return SeverityMinor, nil
	case SeverityMinor, SeverityModerate, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown misconception severity %q", s)
}

// Misconception is a detectable error pattern a learner may exhibit on a skill.
type Misconception struct {
	Tag      string   `json:"tag" yaml:"tag"`
	Severity Severity `json:"severity" yaml:"severity"`

	// Description tells a diagnoser what the error looks like.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AssessmentTemplate is authored seed content for one modality of a skill.
type AssessmentTemplate struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Answer  string   `json:"answer" yaml:"answer"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Rubric  string   `json:"rubric,omitempty" yaml:"rubric,omitempty"`
}

// SkillNode is one learnable unit in a thread's skill graph. Nodes are copied
// into the thread when it starts and never change afterwards.
type SkillNode struct {
	ID             string
	Name           string
	Description    string
	Difficulty     float64
	Prerequisites  []string
	Misconceptions []Misconception
	Templates      map[Modality]AssessmentTemplate
}

// CriticalTags returns the tags of the node's critical misconceptions.
func (n *SkillNode) CriticalTags() []string {
	var tags []string
	for _, m := range n.Misconceptions {
		if m.Severity == SeverityCritical {
			tags = append(tags, m.Tag)
		}
	}
	return tags
}

// RequiresConfirmation reports whether the node defines a confirmation
// assessment that must pass before the skill counts as mastered.
func (n *SkillNode) RequiresConfirmation() bool {
	_, ok := n.Templates[ModalityConfirmation]
	return ok
}

// Template returns the node's template for a modality, if authored.
func (n *SkillNode) Template(m Modality) (AssessmentTemplate, bool) {
	t, ok := n.Templates[m]
	return t, ok
}

// Edge is a prerequisite edge: From must be mastered before To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}
