package spacedrep

import (
	"math"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestCalculateNextReview(t *testing.T) {
	s := NewScheduler(fixedClock)

	tests := []struct {
		name    string
		p       float64
		correct bool
		want    time.Duration
	}{
		{"correct at 0.6 is 8 days", 0.6, true, 8 * 24 * time.Hour},
		{"incorrect at 0.6 is 0.1 day", 0.6, false, 144 * time.Minute},
		{"correct at 0 is 1 day", 0, true, 24 * time.Hour},
		{"correct at 1 is 32 days", 1, true, 32 * 24 * time.Hour},
		{"incorrect at 1 is 0.1 day", 1, false, 144 * time.Minute},
		{"above range clamps", 1.7, true, 32 * 24 * time.Hour},
		{"below range clamps", -0.3, true, 24 * time.Hour},
		{"NaN treated as 0", math.NaN(), true, 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.CalculateNextReview(tt.p, tt.correct)
			diff := got.Sub(fixedNow) - tt.want
			if diff < -time.Second || diff > time.Second {
				t.Errorf("CalculateNextReview(%v, %v) = now+%v, want now+%v", tt.p, tt.correct, got.Sub(fixedNow), tt.want)
			}
		})
	}
}

func TestCorrectAlwaysLaterThanIncorrect(t *testing.T) {
	s := NewScheduler(fixedClock)
	for p := 0.0; p <= 1.0; p += 0.05 {
		if !s.CalculateNextReview(p, true).After(s.CalculateNextReview(p, false)) {
			t.Errorf("at p=%.2f correct review is not later than incorrect", p)
		}
	}
}

func TestIntervalMonotoneInMastery(t *testing.T) {
	var s Scheduler
	prev := time.Duration(0)
	for p := 0.0; p <= 1.0; p += 0.1 {
		iv := s.Interval(p, true)
		if iv <= prev {
			t.Errorf("interval at p=%.1f (%v) not greater than previous (%v)", p, iv, prev)
		}
		prev = iv
	}
}

func TestNextReviewFrom_UsesGivenTime(t *testing.T) {
	s := NewScheduler(fixedClock)
	from := fixedNow.Add(-48 * time.Hour)
	got := s.NextReviewFrom(from, 0, true)
	if !got.Equal(from.Add(24 * time.Hour)) {
		t.Errorf("NextReviewFrom = %v, want %v", got, from.Add(24*time.Hour))
	}
}

func TestScheduler_CustomBase(t *testing.T) {
	s := Scheduler{Now: fixedClock, Base: time.Hour}
	if got := s.Interval(0.6, true); got != 8*time.Hour {
		t.Errorf("Interval with 1h base = %v, want 8h", got)
	}
}
