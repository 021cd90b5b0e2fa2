package exercise

import (
	"testing"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

func TestSelectUnitType(t *testing.T) {
	sel := NewSelector(mastery.DefaultConfig())

	tests := []struct {
		name  string
		state mastery.State
		want  skillgraph.Modality
	}{
		{
			name:  "misconception triggers remediation",
			state: mastery.State{MasteryProbability: 0.95, Uncertainty: 0.05, MisconceptionTags: map[string]int{"x": 1}},
			want:  skillgraph.ModalityRemediation,
		},
		{
			name:  "pending confirmation once thresholds met",
			state: mastery.State{MasteryProbability: 0.9, Uncertainty: 0.1, RequiresConfirmation: true},
			want:  skillgraph.ModalityConfirmation,
		},
		{
			name:  "no confirmation before thresholds",
			state: mastery.State{MasteryProbability: 0.9, Uncertainty: 0.5, RequiresConfirmation: true},
			want:  skillgraph.ModalityApplication,
		},
		{
			name: "no confirmation once applied",
			state: mastery.State{
				MasteryProbability: 0.9, Uncertainty: 0.1,
				RequiresConfirmation: true, HasAppliedConfirmation: true,
			},
			want: skillgraph.ModalityApplication,
		},
		{
			name:  "low mastery prefers recall",
			state: mastery.State{MasteryProbability: 0.05, Uncertainty: 1},
			want:  skillgraph.ModalityFlashcard,
		},
		{
			name:  "mid mastery prefers fill in",
			state: mastery.State{MasteryProbability: 0.5, Uncertainty: 1},
			want:  skillgraph.ModalityFillIn,
		},
		{
			name: "unseen modality wins over closer difficulty",
			state: mastery.State{
				MasteryProbability: 0.5, Uncertainty: 0.6,
				UnitTypesUsed: map[skillgraph.Modality]int{
					skillgraph.ModalityFillIn:         2,
					skillgraph.ModalityMultipleChoice: 1,
					skillgraph.ModalityShortAnswer:    1,
					skillgraph.ModalityFlashcard:      1,
				},
			},
			want: skillgraph.ModalityApplication,
		},
		{
			name:  "out of range probability is clamped",
			state: mastery.State{MasteryProbability: -4, Uncertainty: 1},
			want:  skillgraph.ModalityFlashcard,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sel.SelectUnitType(tt.state); got != tt.want {
				t.Errorf("SelectUnitType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectUnitType_AlwaysValid(t *testing.T) {
	sel := NewSelector(mastery.DefaultConfig())
	for p := 0.0; p <= 1.0; p += 0.05 {
		got := sel.SelectUnitType(mastery.State{MasteryProbability: p, Uncertainty: 0.5})
		if !got.Valid() {
			t.Fatalf("invalid modality %q at p=%v", got, p)
		}
	}
}

func TestWithModalities(t *testing.T) {
	sel := NewSelector(mastery.DefaultConfig()).WithModalities(
		skillgraph.ModalityShortAnswer,
		skillgraph.ModalityConfirmation,
		"bogus",
	)
	got := sel.SelectUnitType(mastery.State{MasteryProbability: 0.1, Uncertainty: 1})
	if got != skillgraph.ModalityShortAnswer {
		t.Errorf("restricted selector chose %q, want short_answer", got)
	}

	all := NewSelector(mastery.DefaultConfig()).WithModalities()
	if got := all.SelectUnitType(mastery.State{MasteryProbability: 0.1, Uncertainty: 1}); got != skillgraph.ModalityFlashcard {
		t.Errorf("empty restriction chose %q, want flashcard", got)
	}
}
