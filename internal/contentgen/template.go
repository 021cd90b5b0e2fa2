package contentgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// TemplateGenerator serves the node's authored assessment templates. When
// the requested practice modality has no template, the first authored
// practice template is used and the exercise reports its real modality.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(_ context.Context, req Request) (*Exercise, error) {
	mod := req.Modality
	t, ok := req.Node.Template(mod)
	if !ok && !special(mod) {
		for _, m := range skillgraph.PracticeModalities() {
			if t, ok = req.Node.Template(m); ok {
				mod = m
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", req.Node.ID, req.Modality, ErrNoContent)
	}

	return &Exercise{
		ID:               uuid.NewString(),
		NodeID:           req.Node.ID,
		Modality:         mod,
		Prompt:           t.Prompt,
		Choices:          t.Choices,
		EstimatedSeconds: estimatedSeconds(mod),
		FormatStrength:   FormatStrength(mod, len(t.Choices)),
		Source:           SourceTemplate,
		Grading: Grading{
			Answer:     t.Answer,
			AnswerType: AnswerTypeText,
			Rubric:     t.Rubric,
		},
	}, nil
}

func special(m skillgraph.Modality) bool {
	return m == skillgraph.ModalityRemediation || m == skillgraph.ModalityConfirmation
}
