// Package diagnosis classifies wrong answers, either as careless slips or
// as one of the skill's authored misconceptions.
package diagnosis

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/llm"
)

// Service coordinates error diagnosis using rule-based classifiers and
// optional LLM-based misconception identification.
type Service struct {
	classifiers []Classifier
	diagnoser   *Diagnoser
	cfg         Config
	logger      *zap.Logger
}

// NewService creates a diagnosis service. If provider is nil, only rule-based
// classification is available.
func NewService(provider llm.Provider, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		classifiers: DefaultClassifiers(),
		cfg:         cfg,
		logger:      logger,
	}
	if provider != nil {
		s.diagnoser = NewDiagnoser(provider, cfg)
	}
	return s
}

// Diagnose classifies a wrong answer. Rules run first; when none applies
// and the node has misconceptions to match against, the LLM is asked.
// LLM failures and low-confidence matches yield CategoryUnclassified.
func (s *Service) Diagnose(ctx context.Context, in *Input) *Result {
	if res, ok := RunClassifiers(s.classifiers, in); ok {
		return res
	}

	unclassified := &Result{Category: CategoryUnclassified, Source: "none"}
	if s.diagnoser == nil || len(in.Node.Misconceptions) == 0 || in.Exercise == nil {
		return unclassified
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	res, err := s.diagnoser.Diagnose(ctx, &Request{
		SkillName:     in.Node.Name,
		Description:   in.Node.Description,
		Prompt:        in.Exercise.Prompt,
		CorrectAnswer: in.Exercise.Grading.Answer,
		LearnerAnswer: in.Answer,
		Modality:      in.Exercise.Modality,
		Candidates:    in.Node.Misconceptions,
	})
	if err != nil {
		s.logger.Warn("diagnosis failed",
			zap.String("node", in.Node.ID),
			zap.Error(err))
		return unclassified
	}
	if res.Category == CategoryMisconception && res.Confidence < s.cfg.MinConfidence {
		s.logger.Debug("diagnosis below confidence threshold",
			zap.String("node", in.Node.ID),
			zap.String("tag", res.Tag),
			zap.Float64("confidence", res.Confidence))
		res.Category = CategoryUnclassified
		res.Tag = ""
	}
	return res
}
