package tutor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/frontier"
	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/metrics"
	"github.com/abhisek/skillpath/internal/ratelimit"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/spacedrep"
	"github.com/abhisek/skillpath/internal/store"
)

func TestMain(m *testing.M) {
	// The expirable LRU runs a purge goroutine for the life of the process,
	// and the genai client's opencensus dependency starts its view worker in init.
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("github.com/hashicorp/golang-lru/v2/expirable.NewLRU[...].func1"),
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func fractionsDraft() *skillgraph.Draft {
	return &skillgraph.Draft{
		Title: "Fractions",
		Nodes: []skillgraph.DraftNode{
			{
				ID:         "add",
				Name:       "Whole-number addition",
				Difficulty: 0.2,
				Misconceptions: []skillgraph.Misconception{
					{Tag: "counts-on-from-first", Severity: skillgraph.SeverityCritical},
				},
				Templates: map[skillgraph.Modality]skillgraph.AssessmentTemplate{
					skillgraph.ModalityFillIn: {Prompt: "2 + 3 = ?", Answer: "5"},
				},
			},
			{
				ID:            "equiv",
				Name:          "Equivalent fractions",
				Difficulty:    0.4,
				Prerequisites: []string{"add"},
				Templates: map[skillgraph.Modality]skillgraph.AssessmentTemplate{
					skillgraph.ModalityFlashcard: {Prompt: "1/2 = ?/4", Answer: "2"},
				},
			},
			{
				ID:            "add-frac",
				Name:          "Adding fractions",
				Difficulty:    0.6,
				Prerequisites: []string{"equiv"},
			},
		},
	}
}

type fixture struct {
	svc     *Service
	store   *store.Store
	metrics *metrics.Metrics
}

type option func(*Options)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tutor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	now := func() time.Time { return epoch }
	o := Options{
		Threads:   st.ThreadRepo(),
		States:    st.MasteryRepo(),
		Events:    st.EventRepo(),
		Model:     mastery.NewModel(mastery.DefaultConfig(), spacedrep.NewScheduler(now)),
		Generator: contentgen.TemplateGenerator{},
		Metrics:   m,
		Now:       now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	svc, err := New(o)
	require.NoError(t, err)
	return &fixture{svc: svc, store: st, metrics: m}
}

func (f *fixture) thread(t *testing.T, user string) (store.Thread, map[string]string) {
	t.Helper()
	th, err := f.svc.CreateThread(context.Background(), user, "", fractionsDraft())
	require.NoError(t, err)

	g, err := f.store.ThreadRepo().Graph(context.Background(), th.ID)
	require.NoError(t, err)
	ids := make(map[string]string)
	for _, n := range g.Nodes() {
		ids[n.Name] = n.ID
	}
	return th, ids
}

func correct() Attempt {
	return Attempt{Correct: true, Modality: skillgraph.ModalityFillIn, FormatStrength: 1}
}

func TestCreateThread_PlanStartsAtRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	assert.Equal(t, "Fractions", th.Title)

	rec, err := f.svc.Plan(ctx, "ada", th.ID)
	require.NoError(t, err)
	assert.Equal(t, frontier.OutcomeActive, rec.Outcome)
	require.NotNil(t, rec.Head)
	assert.Equal(t, ids["Whole-number addition"], rec.Head.NodeID)
	assert.Equal(t, frontier.ReasonGap, rec.Head.Reason)
	assert.Equal(t, skillgraph.ModalityFillIn, rec.Head.SuggestedUnitType)
	assert.Empty(t, rec.Supporting)
	assert.Equal(t, 3, rec.Progress.TotalNodes)
	assert.Zero(t, rec.Progress.MasteredNodes)
}

func TestCreateThread_RejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)
	d := fractionsDraft()
	d.Nodes[0].Prerequisites = []string{"missing"}

	_, err := f.svc.CreateThread(context.Background(), "ada", "bad", d)
	require.ErrorIs(t, err, ErrInvalidGraph)

	_, err = f.svc.CreateThread(context.Background(), "", "bad", fractionsDraft())
	require.Error(t, err)
}

func TestPlan_OtherUsersThreadIsNotFound(t *testing.T) {
	f := newFixture(t)
	th, _ := f.thread(t, "ada")

	_, err := f.svc.Plan(context.Background(), "grace", th.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Plan(context.Background(), "ada", "no-such-thread")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNext_ThenSubmitGradedAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, step.Exercise)
	assert.Equal(t, add, step.Exercise.NodeID)
	assert.Equal(t, "2 + 3 = ?", step.Exercise.Prompt)

	res, err := f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: " 5 "})
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, "5", res.Answer)
	assert.Equal(t, 1, res.State.EvidenceCount)
	assert.Equal(t, int64(1), res.State.Version)
	require.NotNil(t, res.Transition)
	assert.Equal(t, mastery.StatusNew, res.Transition.From)
	assert.Equal(t, mastery.StatusLearning, res.Transition.To)
	assert.Equal(t, "first-attempt", res.Transition.Trigger)

	_, err = f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: "5"})
	require.ErrorIs(t, err, ErrUnknownExercise, "an exercise can be answered once")

	hist, err := f.svc.History(ctx, "ada", th.ID, add, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, " 5 ", hist[0].Response)
	assert.True(t, hist[0].Correct)
	assert.True(t, hist[0].Timestamp.Equal(epoch), "timestamp %v", hist[0].Timestamp)
}

func TestSubmit_ExerciseForAnotherNode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "ada", th.ID, ids["Equivalent fractions"], Attempt{ExerciseID: step.Exercise.ID, Answer: "5"})
	require.ErrorIs(t, err, ErrInvalidAttempt)

	_, err = f.svc.Submit(ctx, "ada", th.ID, ids["Whole-number addition"], Attempt{ExerciseID: "forged", Answer: "5"})
	require.ErrorIs(t, err, ErrUnknownExercise)
}

func TestSubmit_MasteryUnlocksDependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	var last Result
	for i := 0; i < 20 && !last.Verdict.IsMastered; i++ {
		var err error
		last, err = f.svc.Submit(ctx, "ada", th.ID, add, correct())
		require.NoError(t, err)
	}
	require.True(t, last.Verdict.IsMastered, "blockers: %v", last.Verdict.Blockers)
	require.NotNil(t, last.Transition)
	assert.Equal(t, "gate-passed", last.Transition.Trigger)

	rec, err := f.svc.Plan(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Head)
	assert.Equal(t, ids["Equivalent fractions"], rec.Head.NodeID)
	assert.Equal(t, 1, rec.Progress.MasteredNodes)

	events, err := f.svc.Transitions(ctx, "ada", th.ID, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "mastered", events[0].ToStatus)
	assert.Equal(t, "learning", events[1].ToStatus)

	status, err := f.svc.Progress(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.Len(t, status.Nodes, 3)
	assert.Equal(t, mastery.StatusMastered, status.Nodes[0].Status)
	assert.Equal(t, mastery.StatusNew, status.Nodes[1].Status)
}

func TestSubmit_CriticalMisconceptionRoutesToRemediation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	res, err := f.svc.Submit(ctx, "ada", th.ID, add, Attempt{
		Modality: skillgraph.ModalityFillIn,
		Tags:     []string{"counts-on-from-first"},
	})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Verdict.Blockers, "critical_misconception:counts-on-from-first")

	rec, err := f.svc.Plan(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Head)
	assert.Equal(t, frontier.ReasonRemediation, rec.Head.Reason)
	assert.Equal(t, skillgraph.ModalityRemediation, rec.Head.SuggestedUnitType)

	// The template generator has no remediation content for this node.
	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.ErrorIs(t, err, ErrContentUnavailable)
	require.NotNil(t, step.Head)
	assert.Equal(t, add, step.Head.NodeID)
	assert.Nil(t, step.Exercise)
}

func TestSubmit_DiagnosedWrongAnswerFlagsMisconception(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"misconception_tag": "counts-on-from-first",
		"confidence":        0.9,
		"reasoning":         "Counted on from the first addend",
	}))
	f := newFixture(t, func(o *Options) {
		o.Diagnoser = diagnosis.NewService(provider, diagnosis.DefaultConfig(), nil)
	})
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, step.Exercise)

	res, err := f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: "4"})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	require.NotNil(t, res.Diagnosis)
	assert.Equal(t, diagnosis.CategoryMisconception, res.Diagnosis.Category)
	assert.Equal(t, []string{"counts-on-from-first"}, res.Evidence.Tags)
	assert.Contains(t, res.Verdict.Blockers, "critical_misconception:counts-on-from-first")
	expected := `
# HELP skillpath_diagnoses_total Wrong answers diagnosed, by category.
# TYPE skillpath_diagnoses_total counter
skillpath_diagnoses_total{category="misconception"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(),
		strings.NewReader(expected), "skillpath_diagnoses_total"))
	require.Len(t, provider.Calls, 1)

	hist, err := f.svc.History(ctx, "ada", th.ID, add, store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, []string{"counts-on-from-first"}, hist[0].Tags)
}

func TestSubmit_CorrectAnswerIsNotDiagnosed(t *testing.T) {
	provider := llm.NewMockProvider()
	f := newFixture(t, func(o *Options) {
		o.Diagnoser = diagnosis.NewService(provider, diagnosis.DefaultConfig(), nil)
	})
	ctx := context.Background()
	th, ids := f.thread(t, "ada")

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, "ada", th.ID, ids["Whole-number addition"], Attempt{ExerciseID: step.Exercise.ID, Answer: "5"})
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Nil(t, res.Diagnosis)
	assert.Zero(t, provider.CallCount())
}

func TestSubmit_RejectsBadAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]
	over := 1.5

	tests := []struct {
		name    string
		user    string
		node    string
		attempt Attempt
		want    error
	}{
		{"unknown modality", "ada", add, Attempt{Modality: "essay"}, ErrInvalidAttempt},
		{"score out of range", "ada", add, Attempt{Score: &over}, ErrInvalidAttempt},
		{"unknown node", "ada", "nope", correct(), ErrUnknownNode},
		{"foreign thread", "grace", add, correct(), store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.user, th.ID, tt.node, tt.attempt)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmit_ConcurrentAttemptsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, "ada", th.ID, add, correct())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st, err := f.store.MasteryRepo().State(ctx, "ada", th.ID, add)
	require.NoError(t, err)
	assert.Equal(t, n, st.EvidenceCount)
	assert.Equal(t, int64(n), st.Version)
	assert.Zero(t, f.svc.locks.len())
}

// slowDiagnoser holds each wrong answer long enough for concurrent
// submissions of the same exercise to overlap.
type slowDiagnoser struct{ delay time.Duration }

func (d slowDiagnoser) Diagnose(context.Context, *diagnosis.Input) *diagnosis.Result {
	time.Sleep(d.delay)
	return &diagnosis.Result{Category: diagnosis.CategoryUnclassified, Source: "none"}
}

func TestSubmit_IssuedExerciseIsClaimedOnce(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Diagnoser = slowDiagnoser{delay: 50 * time.Millisecond}
	})
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, step.Exercise)

	const n = 4
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: "4"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, ErrUnknownExercise)
	}
	assert.Equal(t, 1, accepted)

	st, err := f.store.MasteryRepo().State(ctx, "ada", th.ID, add)
	require.NoError(t, err)
	assert.Equal(t, 1, st.EvidenceCount)
}

func TestSubmit_FailedWriteKeepsExerciseOpen(t *testing.T) {
	var repo *conflictingRepo
	f := newFixture(t, func(o *Options) {
		repo = &conflictingRepo{MasteryRepo: o.States, failures: 1}
		o.States = repo
		o.MaxCASRetries = 1
	})
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, step.Exercise)

	_, err = f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: "5"})
	require.ErrorIs(t, err, store.ErrConflict)

	res, err := f.svc.Submit(ctx, "ada", th.ID, add, Attempt{ExerciseID: step.Exercise.ID, Answer: "5"})
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, 1, res.State.EvidenceCount)
}

// conflictingRepo reports a version conflict for the first failures calls
// to Apply.
type conflictingRepo struct {
	store.MasteryRepo
	mu       sync.Mutex
	failures int
}

func (r *conflictingRepo) Apply(ctx context.Context, c store.Commit) (mastery.State, error) {
	r.mu.Lock()
	fail := r.failures > 0
	r.failures--
	r.mu.Unlock()
	if fail {
		return mastery.State{}, store.ErrConflict
	}
	return r.MasteryRepo.Apply(ctx, c)
}

func TestSubmit_RetriesVersionConflicts(t *testing.T) {
	var repo *conflictingRepo
	f := newFixture(t, func(o *Options) {
		repo = &conflictingRepo{MasteryRepo: o.States, failures: 2}
		o.States = repo
		o.MaxCASRetries = 3
	})
	ctx := context.Background()
	th, ids := f.thread(t, "ada")
	add := ids["Whole-number addition"]

	res, err := f.svc.Submit(ctx, "ada", th.ID, add, correct())
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.EvidenceCount)

	expected := `
# HELP skillpath_mastery_cas_retries_total Mastery writes retried after a version conflict.
# TYPE skillpath_mastery_cas_retries_total counter
skillpath_mastery_cas_retries_total 2
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(),
		strings.NewReader(expected), "skillpath_mastery_cas_retries_total"))

	repo.mu.Lock()
	repo.failures = 3
	repo.mu.Unlock()
	_, err = f.svc.Submit(ctx, "ada", th.ID, add, correct())
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Limiter = ratelimit.New(ratelimit.Config{Requests: 1, Window: time.Hour, MaxKeys: 10})
	})
	ctx := context.Background()
	th, _ := f.thread(t, "ada")

	_, err := f.svc.Plan(ctx, "ada", th.ID)
	require.NoError(t, err)

	_, err = f.svc.Plan(ctx, "ada", th.ID)
	require.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, ActionPlan, rl.Action)
	assert.Positive(t, rl.RetryAfter)

	// Limits are per action.
	_, err = f.svc.Progress(ctx, "ada", th.ID)
	require.NoError(t, err)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, contentgen.Request) (*contentgen.Exercise, error) {
	return nil, errors.New("provider down")
}

func TestNext_GenerationFailureKeepsRecommendation(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Generator = failingGenerator{} })
	th, ids := f.thread(t, "ada")

	step, err := f.svc.Next(context.Background(), "ada", th.ID)
	require.ErrorIs(t, err, ErrContentUnavailable)
	require.NotNil(t, step.Head)
	assert.Equal(t, ids["Whole-number addition"], step.Head.NodeID)
	assert.Nil(t, step.Exercise)
}

func TestNext_CompleteThreadHasNoExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := &skillgraph.Draft{Nodes: []skillgraph.DraftNode{{ID: "only", Name: "Only", Difficulty: 0.1}}}
	th, err := f.svc.CreateThread(ctx, "ada", "solo", d)
	require.NoError(t, err)

	rec, err := f.svc.Plan(ctx, "ada", th.ID)
	require.NoError(t, err)
	require.NotNil(t, rec.Head)
	for i := 0; i < 20; i++ {
		_, err := f.svc.Submit(ctx, "ada", th.ID, rec.Head.NodeID, correct())
		require.NoError(t, err)
	}

	step, err := f.svc.Next(ctx, "ada", th.ID)
	require.NoError(t, err)
	assert.Equal(t, frontier.OutcomeComplete, step.Outcome)
	assert.Nil(t, step.Head)
	assert.Nil(t, step.Exercise)
	assert.Equal(t, 1.0, step.Progress.OverallProgress)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.len())

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-acquired
	<-released
	unlockB()
	assert.Zero(t, k.len())
}
