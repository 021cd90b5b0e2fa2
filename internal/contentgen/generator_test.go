package contentgen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/spacedrep"
)

func fractionNode() skillgraph.SkillNode {
	return skillgraph.SkillNode{
		ID:          "compare-fractions",
		Name:        "Compare fractions",
		Description: "Decide which of two fractions is larger",
		Difficulty:  0.4,
		Misconceptions: []skillgraph.Misconception{
			{Tag: "bigger-denominator-bigger", Severity: skillgraph.SeverityCritical},
			{Tag: "ignores-numerator", Severity: skillgraph.SeverityMinor},
		},
		Templates: map[skillgraph.Modality]skillgraph.AssessmentTemplate{
			skillgraph.ModalityFlashcard: {Prompt: "Which is larger, 1/2 or 1/3?", Answer: "1/2"},
			skillgraph.ModalityConfirmation: {
				Prompt: "Order 2/3, 3/5, 1/2 from least to greatest.",
				Answer: "1/2, 3/5, 2/3",
			},
		},
	}
}

func request(mod skillgraph.Modality) Request {
	m := mastery.NewModel(mastery.DefaultConfig(), spacedrep.NewScheduler(nil))
	return Request{
		ThreadID: "t1",
		Node:     fractionNode(),
		Modality: mod,
		Mastery:  m.NewState("compare-fractions", true),
	}
}

func mcOutput() map[string]any {
	return map[string]any{
		"prompt":      "Which fraction is larger?",
		"choices":     []string{"1/3", "1/4", "1/2"},
		"answer":      "1/2",
		"answer_type": "fraction",
		"acceptable":  []string{},
		"rubric":      "",
		"keywords":    []string{},
		"distractors": []map[string]string{
			{"choice": "1/4", "misconception": "bigger-denominator-bigger"},
		},
		"hint":              "Picture a pizza cut into more slices.",
		"explanation":       "Fewer equal parts means each part is bigger.",
		"estimated_seconds": 30,
	}
}

func TestLLMGenerator_MultipleChoice(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(mcOutput()))
	gen := NewLLMGenerator(mock, DefaultConfig())

	ex, err := gen.Generate(context.Background(), request(skillgraph.ModalityMultipleChoice))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.ID == "" || ex.Source != SourceLLM || ex.NodeID != "compare-fractions" {
		t.Fatalf("unexpected exercise identity %+v", ex)
	}
	if want := FormatStrength(skillgraph.ModalityMultipleChoice, 3); ex.FormatStrength != want || want >= 0.7 {
		t.Fatalf("format strength %v not discounted for 3 choices", ex.FormatStrength)
	}
	if ex.Grading.Distractors["1/4"] != "bigger-denominator-bigger" {
		t.Fatalf("distractors not carried: %v", ex.Grading.Distractors)
	}

	call := mock.Calls[0]
	if call.Schema != ExerciseSchema || call.Schema == nil {
		t.Fatal("expected exercise schema on request")
	}
	msg := call.Messages[0].Content
	for _, want := range []string{"Compare fractions", "Format: multiple_choice", "bigger-denominator-bigger (critical)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestLLMGenerator_RegeneratesAfterValidationFailure(t *testing.T) {
	bad := mcOutput()
	bad["answer"] = "2/2"
	mock := llm.NewMockProvider(llm.MockJSON(bad), llm.MockJSON(mcOutput()))
	gen := NewLLMGenerator(mock, DefaultConfig())

	if _, err := gen.Generate(context.Background(), request(skillgraph.ModalityMultipleChoice)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestLLMGenerator_GivesUpAfterMaxAttempts(t *testing.T) {
	bad := mcOutput()
	bad["choices"] = []string{"1/2", "1/2", "1/3"}
	mock := llm.NewMockProvider(llm.MockJSON(bad), llm.MockJSON(bad), llm.MockJSON(mcOutput()))
	gen := NewLLMGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), request(skillgraph.ModalityMultipleChoice))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Validator != "choices" {
		t.Fatalf("expected choices validation error, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestLLMGenerator_ProviderErrorNotRegenerated(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	gen := NewLLMGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), request(skillgraph.ModalityFlashcard))
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestTemplateGenerator(t *testing.T) {
	tests := []struct {
		name    string
		mod     skillgraph.Modality
		wantMod skillgraph.Modality
		wantErr bool
	}{
		{"exact template", skillgraph.ModalityConfirmation, skillgraph.ModalityConfirmation, false},
		{"practice falls back", skillgraph.ModalityApplication, skillgraph.ModalityFlashcard, false},
		{"remediation has no fallback", skillgraph.ModalityRemediation, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := TemplateGenerator{}.Generate(context.Background(), request(tt.mod))
			if tt.wantErr {
				if !errors.Is(err, ErrNoContent) {
					t.Fatalf("expected ErrNoContent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ex.Modality != tt.wantMod || ex.Source != SourceTemplate {
				t.Fatalf("got %s from %s", ex.Modality, ex.Source)
			}
		})
	}
}

func TestChain_FallsBackToTemplates(t *testing.T) {
	mock := llm.NewMockProvider()
	chain := Chain{NewLLMGenerator(mock, DefaultConfig()), TemplateGenerator{}}

	ex, err := chain.Generate(context.Background(), request(skillgraph.ModalityFlashcard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.Source != SourceTemplate {
		t.Fatalf("expected template fallback, got %s", ex.Source)
	}

	_, err = chain.Generate(context.Background(), request(skillgraph.ModalityRemediation))
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected joined ErrNoContent, got %v", err)
	}
	if _, err := (Chain{}).Generate(context.Background(), request(skillgraph.ModalityFlashcard)); !errors.Is(err, ErrNoContent) {
		t.Fatalf("empty chain: %v", err)
	}
}

type blockingGenerator struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingGenerator) Generate(ctx context.Context, req Request) (*Exercise, error) {
	if b.calls.Add(1) == 1 {
		close(b.entered)
	}
	<-b.release
	return TemplateGenerator{}.Generate(ctx, req)
}

func TestDeduped_CollapsesConcurrentRequests(t *testing.T) {
	inner := &blockingGenerator{entered: make(chan struct{}), release: make(chan struct{})}
	d := NewDeduped(inner)

	const n = 5
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex, err := d.Generate(context.Background(), request(skillgraph.ModalityFlashcard))
			if err == nil {
				ids[i] = ex.ID
			}
		}()
	}

	<-inner.entered
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 shared call, got %d", got)
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("callers got different exercises: %v", ids)
		}
	}
}

func TestDeduped_KeysByModality(t *testing.T) {
	d := NewDeduped(TemplateGenerator{})
	a, _ := d.Generate(context.Background(), request(skillgraph.ModalityFlashcard))
	b, _ := d.Generate(context.Background(), request(skillgraph.ModalityConfirmation))
	if a.ID == b.ID {
		t.Fatal("different modalities must not share an exercise")
	}
}
