package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Diagnoser performs LLM-based misconception identification.
type Diagnoser struct {
	provider llm.Provider
	cfg      Config
}

// NewDiagnoser creates an LLM-based diagnoser.
func NewDiagnoser(provider llm.Provider, cfg Config) *Diagnoser {
	return &Diagnoser{provider: provider, cfg: cfg}
}

// Request is the input for LLM misconception identification.
type Request struct {
	SkillName     string
	Description   string
	Prompt        string
	CorrectAnswer string
	LearnerAnswer string
	Modality      skillgraph.Modality
	Candidates    []skillgraph.Misconception
}

// diagnosisOutput is the raw LLM response.
type diagnosisOutput struct {
	MisconceptionTag *string `json:"misconception_tag"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
}

// Diagnose sends a wrong answer to the LLM for misconception identification.
// A tag outside the candidate list is reported as unclassified.
func (d *Diagnoser) Diagnose(ctx context.Context, req *Request) (*Result, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeDiagnosis)

	userMsg, err := buildDiagnosisMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build diagnosis prompt: %w", err)
	}

	resp, err := d.provider.Generate(ctx, llm.Request{
		System:      diagnosisSystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		Schema:      DiagnosisSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm diagnosis: %w", err)
	}

	var raw diagnosisOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse diagnosis response: %w", err)
	}

	res := &Result{
		Category:   CategoryUnclassified,
		Confidence: raw.Confidence,
		Source:     "llm",
		Reasoning:  raw.Reasoning,
	}
	if raw.MisconceptionTag == nil {
		return res, nil
	}
	for _, c := range req.Candidates {
		if c.Tag == *raw.MisconceptionTag {
			res.Category = CategoryMisconception
			res.Tag = c.Tag
			break
		}
	}
	return res, nil
}

const diagnosisSystemPrompt = `You are an expert learning diagnostician. A learner answered an exercise incorrectly. Your job is to determine if their error matches one of the skill's known misconception patterns.

Instructions:
- If the learner's error clearly matches one of the listed misconceptions, return its tag.
- If the error does not match any listed misconception, return null for misconception_tag.
- Do NOT invent new tags. Only use tags from the list provided.
- Provide a confidence score (0.0–1.0) reflecting how well the error matches.
- Keep reasoning to one sentence.`

var diagnosisUserTemplate = template.Must(template.New("diagnosis").Parse(`Skill: {{.SkillName}}
{{if .Description}}About the skill: {{.Description}}
{{end}}Exercise ({{.Modality}}): {{.Prompt}}
Correct answer: {{.CorrectAnswer}}
Learner's answer: {{.LearnerAnswer}}

Known misconceptions for this skill:
{{range .Candidates}}- {{.Tag}} ({{.Severity}}){{if .Description}}: {{.Description}}{{end}}
{{end}}`))

func buildDiagnosisMessage(req *Request) (string, error) {
	var buf bytes.Buffer
	if err := diagnosisUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
