package tutor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/contentgen"
)

// Step is a recommendation with the exercise generated for its head.
type Step struct {
	Recommendation
	Exercise *contentgen.Exercise `json:"exercise,omitempty"`
}

// Next plans the thread and generates an exercise for the head of the
// frontier. A thread that is complete or blocked yields no exercise and no
// error. When generation fails the recommendation is still returned,
// together with ErrContentUnavailable.
func (s *Service) Next(ctx context.Context, userID, threadID string) (Step, error) {
	if err := s.allow(userID, ActionNext); err != nil {
		return Step{}, err
	}
	snap, err := s.load(ctx, userID, threadID)
	if err != nil {
		return Step{}, err
	}

	step := Step{Recommendation: s.recommend(snap)}
	head := step.Head
	if head == nil {
		return step, nil
	}

	node, ok := snap.graph.Node(head.NodeID)
	if !ok {
		return step, fmt.Errorf("%w: %s", ErrUnknownNode, head.NodeID)
	}
	ex, err := s.gen.Generate(ctx, contentgen.Request{
		ThreadID: threadID,
		Node:     node,
		Modality: head.SuggestedUnitType,
		Mastery:  head.State,
	})
	if err != nil {
		s.metrics.GenerationFailed()
		s.logger.Warn("exercise generation failed",
			zap.String("thread", threadID),
			zap.String("node", head.NodeID),
			zap.String("modality", string(head.SuggestedUnitType)),
			zap.Error(err))
		return step, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	s.metrics.Exercise(string(ex.Source))
	s.issued.Add(ex.ID, issuedExercise{UserID: userID, ThreadID: threadID, Exercise: ex})
	step.Exercise = ex
	return step, nil
}
