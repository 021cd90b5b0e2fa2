package contentgen

import (
	"testing"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

func validMC() *Exercise {
	return &Exercise{
		Modality:         skillgraph.ModalityMultipleChoice,
		Prompt:           "Which fraction is larger?",
		Choices:          []string{"1/3", "1/4", "1/2"},
		EstimatedSeconds: 30,
		Grading: Grading{
			Answer:      "1/2",
			AnswerType:  AnswerTypeFraction,
			Distractors: map[string]string{"1/4": "bigger-denominator-bigger"},
		},
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Exercise)
		validator string
	}{
		{"valid", func(*Exercise) {}, ""},
		{"empty prompt", func(e *Exercise) { e.Prompt = " " }, "structural"},
		{"empty answer", func(e *Exercise) { e.Grading.Answer = "" }, "structural"},
		{"seconds too low", func(e *Exercise) { e.EstimatedSeconds = 1 }, "structural"},
		{"wrong modality", func(e *Exercise) { e.Modality = skillgraph.ModalityFillIn }, "structural"},
		{"too few choices", func(e *Exercise) { e.Choices = e.Choices[:2] }, "choices"},
		{"duplicate choices", func(e *Exercise) { e.Choices[0] = "1/2 " }, "choices"},
		{"answer not a choice", func(e *Exercise) { e.Grading.Answer = "3/4" }, "choices"},
		{"distractor not a choice", func(e *Exercise) { e.Grading.Distractors = map[string]string{"9": "bigger-denominator-bigger"} }, "choices"},
		{"unknown distractor tag", func(e *Exercise) { e.Grading.Distractors = map[string]string{"1/4": "made-up"} }, "choices"},
		{"unknown answer type", func(e *Exercise) { e.Grading.AnswerType = "roman" }, "answer-type"},
		{"unparseable free answer", func(e *Exercise) {
			e.Modality = skillgraph.ModalityFillIn
			e.Choices = nil
			e.Grading.Distractors = nil
			e.Grading.Answer = "half"
		}, "answer-type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := validMC()
			tt.mutate(ex)
			req := request(ex.Modality)
			if tt.name == "wrong modality" {
				req.Modality = skillgraph.ModalityMultipleChoice
			}

			var failed string
			for _, v := range DefaultValidators() {
				if verr := v.Validate(ex, req); verr != nil {
					failed = verr.Validator
					if !verr.Retryable {
						t.Errorf("%s failures should be retryable", failed)
					}
					break
				}
			}
			if failed != tt.validator {
				t.Fatalf("failed validator = %q, want %q", failed, tt.validator)
			}
		})
	}
}
