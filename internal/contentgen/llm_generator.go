package contentgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/skillpath/internal/llm"
)

// LLMGenerator authors exercises with an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

func NewLLMGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Validators == nil {
		cfg.Validators = DefaultValidators()
	}
	return &LLMGenerator{provider: provider, config: cfg}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Exercise, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExercise)
	lreq := llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(req)),
		Schema:      ExerciseSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	var lastErr error
	for range g.config.MaxAttempts {
		ex, err := g.generateOnce(ctx, lreq, req)
		if err == nil {
			return ex, nil
		}
		lastErr = err
		var verr *ValidationError
		if !errors.As(err, &verr) || !verr.Retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *LLMGenerator) generateOnce(ctx context.Context, lreq llm.Request, req Request) (*Exercise, error) {
	resp, err := g.provider.Generate(ctx, lreq)
	if err != nil {
		return nil, fmt.Errorf("llm generation: %w", err)
	}

	var out exerciseOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}

	ex := &Exercise{
		ID:               uuid.NewString(),
		NodeID:           req.Node.ID,
		Modality:         req.Modality,
		Prompt:           out.Prompt,
		Choices:          out.Choices,
		Hint:             out.Hint,
		EstimatedSeconds: out.EstimatedSeconds,
		FormatStrength:   FormatStrength(req.Modality, len(out.Choices)),
		Source:           SourceLLM,
		Explanation:      out.Explanation,
		Grading: Grading{
			Answer:     out.Answer,
			AnswerType: AnswerType(out.AnswerType),
			Acceptable: out.Acceptable,
			Rubric:     out.Rubric,
			Keywords:   out.Keywords,
		},
	}
	if len(out.Distractors) > 0 {
		ex.Grading.Distractors = make(map[string]string, len(out.Distractors))
		for _, d := range out.Distractors {
			ex.Grading.Distractors[d.Choice] = d.Misconception
		}
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(ex, req); verr != nil {
			return nil, verr
		}
	}
	return ex, nil
}
