package spacedrep

import "time"

// ReviewStatus describes a skill's review status for display.
type ReviewStatus string

const (
	ReviewUnscheduled ReviewStatus = "unscheduled"
	ReviewNotDue      ReviewStatus = "not_due"
	ReviewDue         ReviewStatus = "due"
	ReviewOverdue     ReviewStatus = "overdue"
)

// IsDue returns true if a review time is set and now is at or past it.
// An unset review time is never due.
func IsDue(next *time.Time, now time.Time) bool {
	return next != nil && !now.Before(*next)
}

// OverdueDays returns how many days past due the review is. Returns 0 if
// not yet due or unscheduled.
func OverdueDays(next *time.Time, now time.Time) float64 {
	if !IsDue(next, now) {
		return 0
	}
	return now.Sub(*next).Hours() / 24.0
}

// DaysUntilReview returns the number of whole days until the next review,
// rounded up. Returns 0 if already due or unscheduled.
func DaysUntilReview(next *time.Time, now time.Time) int {
	if next == nil || IsDue(next, now) {
		return 0
	}
	return int(next.Sub(now).Hours()/24.0) + 1
}

// Status returns the review status for display.
func Status(next *time.Time, now time.Time) ReviewStatus {
	switch {
	case next == nil:
		return ReviewUnscheduled
	case now.Sub(*next) > OverdueGrace:
		return ReviewOverdue
	case IsDue(next, now):
		return ReviewDue
	default:
		return ReviewNotDue
	}
}
