package contentgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Validator checks a generated exercise before it is served.
type Validator interface {
	Name() string
	Validate(ex *Exercise, req Request) *ValidationError
}

// ValidationError describes why an exercise was rejected.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the standard validation pipeline.
func DefaultValidators() []Validator {
	return []Validator{&StructuralValidator{}, &ChoiceValidator{}, &AnswerTypeValidator{}}
}

// StructuralValidator checks required fields and length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(ex *Exercise, req Request) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: true}
	}
	switch {
	case strings.TrimSpace(ex.Prompt) == "":
		return fail("prompt is empty")
	case len(ex.Prompt) > 1000:
		return fail("prompt exceeds 1000 characters")
	case strings.TrimSpace(ex.Grading.Answer) == "":
		return fail("answer is empty")
	case len(ex.Explanation) > 1500:
		return fail("explanation exceeds 1500 characters")
	case ex.EstimatedSeconds < 5 || ex.EstimatedSeconds > 1800:
		return fail("estimated_seconds %d outside [5, 1800]", ex.EstimatedSeconds)
	case ex.Modality != req.Modality:
		return fail("modality %q does not match requested %q", ex.Modality, req.Modality)
	}
	return nil
}

// ChoiceValidator enforces choice constraints: multiple choice needs 3 to
// 6 distinct non-empty options with exactly one matching the answer, and
// distractor tags must be misconceptions the node declares.
type ChoiceValidator struct{}

func (v *ChoiceValidator) Name() string { return "choices" }

func (v *ChoiceValidator) Validate(ex *Exercise, req Request) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: true}
	}

	if ex.Modality == skillgraph.ModalityMultipleChoice && (len(ex.Choices) < 3 || len(ex.Choices) > 6) {
		return fail("multiple choice needs 3 to 6 choices, got %d", len(ex.Choices))
	}
	if len(ex.Choices) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(ex.Choices))
	matches := 0
	answer := strings.ToLower(collapse(ex.Grading.Answer))
	for i, c := range ex.Choices {
		key := strings.ToLower(collapse(c))
		if key == "" {
			return fail("choice %d is empty", i+1)
		}
		if seen[key] {
			return fail("duplicate choice %q", c)
		}
		seen[key] = true
		if key == answer {
			matches++
		}
	}
	if matches != 1 {
		return fail("answer %q must match exactly one choice, matched %d", ex.Grading.Answer, matches)
	}

	known := make(map[string]bool, len(req.Node.Misconceptions))
	for _, m := range req.Node.Misconceptions {
		known[m.Tag] = true
	}
	for choice, tag := range ex.Grading.Distractors {
		if !seen[strings.ToLower(collapse(choice))] {
			return fail("distractor %q is not a choice", choice)
		}
		if !known[tag] {
			return fail("distractor tag %q is not a misconception of %s", tag, req.Node.ID)
		}
	}
	return nil
}

// AnswerTypeValidator checks that the answer parses as its declared type.
type AnswerTypeValidator struct{}

func (v *AnswerTypeValidator) Name() string { return "answer-type" }

func (v *AnswerTypeValidator) Validate(ex *Exercise, _ Request) *ValidationError {
	switch ex.Grading.AnswerType {
	case AnswerTypeText, AnswerTypeInteger, AnswerTypeDecimal, AnswerTypeFraction:
	default:
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("unknown answer_type %q", ex.Grading.AnswerType),
			Retryable: true,
		}
	}
	if len(ex.Choices) > 0 {
		return nil
	}
	if _, err := normalizeAnswer(ex.Grading.Answer, ex.Grading.AnswerType); err != nil {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("answer %q is not a valid %s: %v", ex.Grading.Answer, ex.Grading.AnswerType, err),
			Retryable: true,
		}
	}
	return nil
}
