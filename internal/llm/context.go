package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purpose labels recorded with each request event.
const (
	PurposeExercise  = "exercise"
	PurposeDiagnosis = "diagnosis"
	PurposeUnknown   = "unknown"
)

// WithPurpose tags ctx so request events can be grouped by caller.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose tag on ctx, or PurposeUnknown.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
