package spacedrep

import (
	"math"
	"time"
)

// Scheduler computes when a skill should next be reviewed.
// The zero value uses the wall clock and a one day base interval.
type Scheduler struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Base overrides BaseInterval when positive.
	Base time.Duration
}

// NewScheduler returns a scheduler using the given clock. A nil clock means
// time.Now.
func NewScheduler(now func() time.Time) Scheduler {
	return Scheduler{Now: now}
}

// Current returns the scheduler's notion of now.
func (s Scheduler) Current() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Scheduler) base() time.Duration {
	if s.Base > 0 {
		return s.Base
	}
	return BaseInterval
}

// Interval returns the spacing for an attempt:
// base * 2^(p*5) when correct, base * 0.1 otherwise.
// p is clamped to [0,1].
func (s Scheduler) Interval(masteryProbability float64, wasCorrect bool) time.Duration {
	days := RelearnIntervalDays
	if wasCorrect {
		p := math.Min(1, math.Max(0, masteryProbability))
		if math.IsNaN(masteryProbability) {
			p = 0
		}
		days = math.Pow(2, p*MaxExponent)
	}
	return time.Duration(days * float64(s.base()))
}

// CalculateNextReview returns the next review time measured from now.
func (s Scheduler) CalculateNextReview(masteryProbability float64, wasCorrect bool) time.Time {
	return s.NextReviewFrom(s.Current(), masteryProbability, wasCorrect)
}

// NextReviewFrom returns the next review time measured from an attempt's
// timestamp.
func (s Scheduler) NextReviewFrom(from time.Time, masteryProbability float64, wasCorrect bool) time.Time {
	return from.Add(s.Interval(masteryProbability, wasCorrect))
}
