package diagnosis

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

func testRequest() *Request {
	return &Request{
		SkillName:     "Adding Fractions",
		Description:   "Add fractions with unlike denominators",
		Prompt:        "What is 1/2 + 1/3?",
		CorrectAnswer: "5/6",
		LearnerAnswer: "2/5",
		Modality:      skillgraph.ModalityShortAnswer,
		Candidates: []skillgraph.Misconception{
			{Tag: "add-denominators", Severity: skillgraph.SeverityCritical, Description: "Adds numerators and denominators separately"},
			{Tag: "no-common-denominator", Severity: skillgraph.SeverityModerate},
		},
	}
}

func TestDiagnoser_MatchesMisconception(t *testing.T) {
	resp := json.RawMessage(`{"misconception_tag":"add-denominators","confidence":0.92,"reasoning":"Added tops and bottoms"}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	d := NewDiagnoser(mock, DefaultConfig())

	result, err := d.Diagnose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if result.Category != CategoryMisconception {
		t.Errorf("category = %q, want %q", result.Category, CategoryMisconception)
	}
	if result.Tag != "add-denominators" {
		t.Errorf("tag = %q, want add-denominators", result.Tag)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %f, want 0.92", result.Confidence)
	}
	if result.Source != "llm" {
		t.Errorf("source = %q, want llm", result.Source)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("calls = %d, want 1", mock.CallCount())
	}
	if got := mock.Calls[0].Schema; got != DiagnosisSchema {
		t.Errorf("request schema = %v, want DiagnosisSchema", got)
	}
}

func TestDiagnoser_NullMisconception(t *testing.T) {
	resp := json.RawMessage(`{"misconception_tag":null,"confidence":0.3,"reasoning":"No clear pattern"}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	d := NewDiagnoser(mock, DefaultConfig())

	result, err := d.Diagnose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if result.Category != CategoryUnclassified {
		t.Errorf("category = %q, want %q", result.Category, CategoryUnclassified)
	}
	if result.Tag != "" {
		t.Errorf("tag = %q, want empty", result.Tag)
	}
}

func TestDiagnoser_UnknownTagRejected(t *testing.T) {
	resp := json.RawMessage(`{"misconception_tag":"made-up","confidence":0.9,"reasoning":"test"}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: resp})
	d := NewDiagnoser(mock, DefaultConfig())

	result, err := d.Diagnose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if result.Category != CategoryUnclassified {
		t.Errorf("category = %q, want %q (unknown tag should be rejected)", result.Category, CategoryUnclassified)
	}
}

func TestDiagnoser_LLMError(t *testing.T) {
	mock := llm.NewMockProvider() // Empty queue → ErrProviderUnavailable
	d := NewDiagnoser(mock, DefaultConfig())

	if _, err := d.Diagnose(context.Background(), testRequest()); err == nil {
		t.Error("expected error from empty mock provider")
	}
}

func TestBuildDiagnosisMessage(t *testing.T) {
	msg, err := buildDiagnosisMessage(testRequest())
	if err != nil {
		t.Fatalf("buildDiagnosisMessage failed: %v", err)
	}
	for _, want := range []string{
		"Adding Fractions",
		"What is 1/2 + 1/3?",
		"Learner's answer: 2/5",
		"- add-denominators (critical): Adds numerators and denominators separately",
		"- no-common-denominator (moderate)\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
