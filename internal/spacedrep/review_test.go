package spacedrep

import (
	"testing"
	"time"
)

func at(d time.Duration) *time.Time {
	t := fixedNow.Add(d)
	return &t
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		next *time.Time
		want bool
	}{
		{"unset is never due", nil, false},
		{"future", at(time.Hour), false},
		{"exactly now", at(0), true},
		{"past", at(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.next, fixedNow); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		next *time.Time
		want ReviewStatus
	}{
		{nil, ReviewUnscheduled},
		{at(72 * time.Hour), ReviewNotDue},
		{at(-time.Hour), ReviewDue},
		{at(-49 * time.Hour), ReviewOverdue},
	}
	for _, tt := range tests {
		if got := Status(tt.next, fixedNow); got != tt.want {
			t.Errorf("Status(%v) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestDaysUntilReview(t *testing.T) {
	if got := DaysUntilReview(at(36*time.Hour), fixedNow); got != 2 {
		t.Errorf("DaysUntilReview(+36h) = %d, want 2", got)
	}
	if got := DaysUntilReview(at(-time.Hour), fixedNow); got != 0 {
		t.Errorf("DaysUntilReview(past) = %d, want 0", got)
	}
	if got := DaysUntilReview(nil, fixedNow); got != 0 {
		t.Errorf("DaysUntilReview(nil) = %d, want 0", got)
	}
}

func TestOverdueDays(t *testing.T) {
	if got := OverdueDays(at(-36*time.Hour), fixedNow); got != 1.5 {
		t.Errorf("OverdueDays(-36h) = %v, want 1.5", got)
	}
	if got := OverdueDays(at(time.Hour), fixedNow); got != 0 {
		t.Errorf("OverdueDays(future) = %v, want 0", got)
	}
}
