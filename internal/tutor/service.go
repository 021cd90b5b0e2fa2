// Package tutor orchestrates a learner's thread: it loads the skill graph
// and mastery states, asks the engine for the frontier, obtains exercises
// from the content generator, and writes graded evidence back.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/frontier"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/metrics"
	"github.com/abhisek/skillpath/internal/ratelimit"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/store"
)

var (
	// ErrUnknownNode is returned when a node is not part of the thread's graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrContentUnavailable is returned by Next, together with the
	// recommendation, when no exercise could be generated.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrRateLimited is matched by every *RateLimitError.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidGraph wraps draft remapping and graph validation failures.
	ErrInvalidGraph = errors.New("invalid skill graph")

	// ErrInvalidAttempt is returned for attempts that cannot be graded.
	ErrInvalidAttempt = errors.New("invalid attempt")

	// ErrUnknownExercise is returned when an answered exercise was never
	// issued to this learner or has expired.
	ErrUnknownExercise = errors.New("unknown or expired exercise")
)

// RateLimitError reports a rejected request and when to retry.
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry after %s", e.Action, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Rate-limited actions.
const (
	ActionCreate   = "create"
	ActionPlan     = "plan"
	ActionNext     = "next"
	ActionSubmit   = "submit"
	ActionProgress = "progress"
)

const (
	defaultMaxCASRetries = 5
	defaultExerciseTTL   = 30 * time.Minute
	defaultMaxExercises  = 10_000

	// supportingCount is how many frontier entries follow the head in a
	// recommendation.
	supportingCount = 2
)

// Options configures a Service. Model and Generator are required.
type Options struct {
	Threads store.ThreadRepo
	States  store.MasteryRepo
	Events  store.EventRepo

	Model     *mastery.Model
	Frontier  *frontier.Selector
	Generator contentgen.Generator

	// Diagnoser, when set, looks for misconceptions behind wrong answers
	// to issued exercises that did not already reveal one.
	Diagnoser Diagnoser

	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// Now stamps attempts that carry no timestamp. Defaults to time.Now.
	Now func() time.Time

	// MaxCASRetries bounds how often Submit re-reads a state after a
	// version conflict.
	MaxCASRetries int

	// ExerciseTTL is how long an issued exercise can be answered.
	ExerciseTTL  time.Duration
	MaxExercises int
}

// Service is safe for concurrent use.
type Service struct {
	threads store.ThreadRepo
	states  store.MasteryRepo
	events  store.EventRepo

	model    *mastery.Model
	frontier *frontier.Selector
	gen      contentgen.Generator
	diag     Diagnoser

	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	maxCASRetries int
	issued        *expirable.LRU[string, issuedExercise]
	locks         *keyedMutex
}

// Diagnoser classifies a wrong answer.
type Diagnoser interface {
	Diagnose(ctx context.Context, in *diagnosis.Input) *diagnosis.Result
}

// issuedExercise is an exercise handed to a learner and awaiting an answer.
type issuedExercise struct {
	UserID   string
	ThreadID string
	Exercise *contentgen.Exercise
}

func New(opts Options) (*Service, error) {
	if opts.Threads == nil || opts.States == nil || opts.Events == nil {
		return nil, errors.New("tutor: repositories are required")
	}
	if opts.Model == nil {
		return nil, errors.New("tutor: model is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("tutor: generator is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Frontier == nil {
		opts.Frontier = frontier.NewSelector(opts.Model.Config(), nil, opts.Now)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxCASRetries <= 0 {
		opts.MaxCASRetries = defaultMaxCASRetries
	}
	if opts.ExerciseTTL <= 0 {
		opts.ExerciseTTL = defaultExerciseTTL
	}
	if opts.MaxExercises <= 0 {
		opts.MaxExercises = defaultMaxExercises
	}

	return &Service{
		threads:       opts.Threads,
		states:        opts.States,
		events:        opts.Events,
		model:         opts.Model,
		frontier:      opts.Frontier,
		gen:           opts.Generator,
		diag:          opts.Diagnoser,
		limiter:       opts.Limiter,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		now:           opts.Now,
		maxCASRetries: opts.MaxCASRetries,
		issued:        expirable.NewLRU[string, issuedExercise](opts.MaxExercises, nil, opts.ExerciseTTL),
		locks:         newKeyedMutex(),
	}, nil
}

func (s *Service) allow(userID, action string) error {
	ok, wait := s.limiter.Allow(userID, action)
	if ok {
		return nil
	}
	s.metrics.RateLimited(action)
	return &RateLimitError{Action: action, RetryAfter: wait}
}

// CreateThread assigns storage IDs to the draft, validates the resulting
// graph, and stores it with a fresh mastery state per node. An empty title
// falls back to the draft's title.
func (s *Service) CreateThread(ctx context.Context, userID, title string, draft *skillgraph.Draft) (store.Thread, error) {
	if userID == "" {
		return store.Thread{}, errors.New("user ID is required")
	}
	if draft == nil {
		return store.Thread{}, fmt.Errorf("%w: empty draft", ErrInvalidGraph)
	}
	if err := s.allow(userID, ActionCreate); err != nil {
		return store.Thread{}, err
	}

	g, ids, err := draft.Build(nil)
	if err != nil {
		return store.Thread{}, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	states := make([]mastery.State, 0, g.Len())
	for _, n := range g.Nodes() {
		states = append(states, s.model.NewState(n.ID, n.RequiresConfirmation()))
	}
	if title == "" {
		title = draft.Title
	}

	th, err := s.threads.Create(ctx, store.NewThread{
		UserID: userID,
		Title:  title,
		Graph:  g,
		States: states,
		IDs:    ids,
	})
	if err != nil {
		return store.Thread{}, err
	}
	s.logger.Info("thread created",
		zap.String("user", userID),
		zap.String("thread", th.ID),
		zap.Int("nodes", g.Len()))
	return th, nil
}

// Threads lists a learner's threads, newest first.
func (s *Service) Threads(ctx context.Context, userID string) ([]store.Thread, error) {
	return s.threads.List(ctx, userID)
}

// snapshot is a thread's graph and states read together.
type snapshot struct {
	thread store.Thread
	graph  *skillgraph.Graph
	states map[string]mastery.State
}

// load reads the thread, its graph, and the learner's states in parallel.
// A thread owned by another user is reported as not found.
func (s *Service) load(ctx context.Context, userID, threadID string) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		th, err := s.threads.Get(gctx, threadID)
		snap.thread = th
		return err
	})
	g.Go(func() error {
		graph, err := s.threads.Graph(gctx, threadID)
		snap.graph = graph
		return err
	})
	g.Go(func() error {
		states, err := s.states.States(gctx, userID, threadID)
		snap.states = states
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	if snap.thread.UserID != userID {
		return nil, fmt.Errorf("load thread %s: %w", threadID, store.ErrNotFound)
	}
	return &snap, nil
}

// Recommendation is the engine's answer to "what next" for a thread.
type Recommendation struct {
	ThreadID   string                 `json:"thread_id"`
	Outcome    frontier.Outcome       `json:"outcome"`
	Head       *frontier.Entry        `json:"head,omitempty"`
	Supporting []frontier.Entry       `json:"supporting"`
	Progress   mastery.ThreadProgress `json:"progress"`
}

// Plan computes the frontier for a thread without generating content.
func (s *Service) Plan(ctx context.Context, userID, threadID string) (Recommendation, error) {
	if err := s.allow(userID, ActionPlan); err != nil {
		return Recommendation{}, err
	}
	snap, err := s.load(ctx, userID, threadID)
	if err != nil {
		return Recommendation{}, err
	}
	return s.recommend(snap), nil
}

func (s *Service) recommend(snap *snapshot) Recommendation {
	critical := snap.graph.CriticalTagsByNode()
	mastered := s.model.MasteredSet(snap.states, critical)
	entries := s.frontier.SelectFrontier(snap.graph, snap.states, mastered)

	rec := Recommendation{
		ThreadID:   snap.thread.ID,
		Outcome:    frontier.Classify(snap.graph, mastered, entries),
		Supporting: []frontier.Entry{},
		Progress:   s.model.CalculateThreadProgress(s.orderedStates(snap), critical),
	}
	if len(entries) > 0 {
		head := entries[0]
		rec.Head = &head
		rec.Supporting = frontier.Head(entries[1:], supportingCount)
	}
	return rec
}

// orderedStates lists states in graph order, filling nodes that have no
// stored state with the initial state.
func (s *Service) orderedStates(snap *snapshot) []mastery.State {
	out := make([]mastery.State, 0, snap.graph.Len())
	for _, n := range snap.graph.Nodes() {
		st, ok := snap.states[n.ID]
		if !ok {
			st = s.model.NewState(n.ID, n.RequiresConfirmation())
		}
		out = append(out, st)
	}
	return out
}
