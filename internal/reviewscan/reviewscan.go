// Package reviewscan periodically counts skills that are due for review.
package reviewscan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultInterval is the scan period when none is configured.
const DefaultInterval = 15 * time.Minute

// DueCounter counts mastery states with a review at or before now.
type DueCounter interface {
	CountDue(ctx context.Context, now time.Time) (int, error)
}

// Publisher receives each scan result.
type Publisher interface {
	SetReviewsDue(n int)
}

// Scanner runs the due-review count on a gocron schedule.
type Scanner struct {
	counter  DueCounter
	pub      Publisher
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	sched *gocron.Scheduler
	done  chan struct{}
	last  int
}

func New(counter DueCounter, pub Publisher, interval time.Duration, logger *zap.Logger) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		counter:  counter,
		pub:      pub,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan counts due reviews once and publishes the result.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	n, err := s.counter.CountDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("count due reviews: %w", err)
	}
	if s.pub != nil {
		s.pub.SetReviewsDue(n)
	}
	s.mu.Lock()
	s.last = n
	s.mu.Unlock()
	return n, nil
}

// Last returns the most recent scan result.
func (s *Scanner) Last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start schedules Scan every interval, running once immediately. Scans
// use ctx; Stop or cancelling ctx halts the schedule.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		return fmt.Errorf("review scan already started")
	}

	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()
	_, err := sched.Every(s.interval).Do(func() {
		n, err := s.Scan(ctx)
		if err != nil {
			s.logger.Warn("review scan failed", zap.Error(err))
			return
		}
		s.logger.Debug("review scan", zap.Int("due", n))
	})
	if err != nil {
		return fmt.Errorf("schedule review scan: %w", err)
	}
	sched.StartAsync()
	s.sched = sched
	s.done = make(chan struct{})

	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}(s.done)
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	sched, done := s.sched, s.done
	s.sched, s.done = nil, nil
	s.mu.Unlock()
	if sched == nil {
		return
	}
	close(done)
	sched.Stop()
}
