package contentgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// Grade scores a learner response and returns the evidence to integrate.
//
// Matching rules:
//   - whitespace is trimmed and collapsed, comparison is case-insensitive
//   - choice exercises accept the choice text or its 1-based index
//   - integers ignore leading zeros, decimals ignore trailing zeros, and
//     fractions are compared in lowest terms
//   - free-form modalities with keywords earn partial credit for the
//     fraction of keywords present
//
// A wrong choice listed in Grading.Distractors flags its misconception tag.
func Grade(ex *Exercise, response string, at time.Time) mastery.Evidence {
	ev := mastery.Evidence{
		Modality:       ex.Modality,
		FormatStrength: ex.FormatStrength,
		Timestamp:      at,
	}
	if ev.FormatStrength == 0 {
		ev.FormatStrength = FormatStrength(ex.Modality, len(ex.Choices))
	}

	response = collapse(response)
	if response == "" {
		return ev
	}

	if len(ex.Choices) > 0 {
		chosen := resolveChoice(response, ex.Choices)
		ev.Correct = strings.EqualFold(chosen, collapse(ex.Grading.Answer))
		if !ev.Correct {
			if tag, ok := lookupFold(ex.Grading.Distractors, chosen); ok {
				ev.Tags = []string{tag}
			}
		}
		return ev
	}

	keys := append([]string{ex.Grading.Answer}, ex.Grading.Acceptable...)
	for _, k := range keys {
		if answersEqual(response, k, ex.Grading.AnswerType) {
			ev.Correct = true
			return ev
		}
	}

	if len(ex.Grading.Keywords) > 0 && freeForm(ex.Modality) {
		score := keywordScore(response, ex.Grading.Keywords)
		ev.Score = &score
	}
	return ev
}

func freeForm(m skillgraph.Modality) bool {
	switch m {
	case skillgraph.ModalityShortAnswer, skillgraph.ModalityApplication,
		skillgraph.ModalityRemediation, skillgraph.ModalityConfirmation:
		return true
	}
	return false
}

func resolveChoice(response string, choices []string) string {
	if idx, err := strconv.Atoi(response); err == nil && idx >= 1 && idx <= len(choices) {
		// A numeric choice text wins over an index of the same value.
		for _, c := range choices {
			if collapse(c) == response {
				return response
			}
		}
		return collapse(choices[idx-1])
	}
	return response
}

func lookupFold(m map[string]string, key string) (string, bool) {
	for k, v := range m {
		if strings.EqualFold(collapse(k), key) {
			return v, true
		}
	}
	return "", false
}

func keywordScore(response string, keywords []string) float64 {
	lower := strings.ToLower(response)
	hit := 0
	for _, k := range keywords {
		if k = strings.ToLower(collapse(k)); k != "" && strings.Contains(lower, k) {
			hit++
		}
	}
	return float64(hit) / float64(len(keywords))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func answersEqual(a, b string, t AnswerType) bool {
	na, err := normalizeAnswer(a, t)
	if err != nil {
		return false
	}
	nb, err := normalizeAnswer(b, t)
	if err != nil {
		return false
	}
	return strings.EqualFold(na, nb)
}

func normalizeAnswer(answer string, t AnswerType) (string, error) {
	answer = collapse(answer)
	switch t {
	case AnswerTypeInteger:
		n, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid integer: %w", err)
		}
		return strconv.FormatInt(n, 10), nil

	case AnswerTypeDecimal:
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return "", fmt.Errorf("invalid decimal: %w", err)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case AnswerTypeFraction:
		num, den, err := parseFraction(answer)
		if err != nil {
			return "", err
		}
		if den < 0 {
			num, den = -num, -den
		}
		g := gcd(abs(num), den)
		return fmt.Sprintf("%d/%d", num/g, den/g), nil

	default:
		return strings.ToLower(answer), nil
	}
}

func parseFraction(s string) (int64, int64, error) {
	numStr, denStr, ok := strings.Cut(s, "/")
	if !ok {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, 1, err
	}
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid numerator: %w", err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid denominator: %w", err)
	}
	if den == 0 {
		return 0, 0, fmt.Errorf("zero denominator")
	}
	return num, den, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
