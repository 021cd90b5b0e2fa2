package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/spacedrep"
)

func TestMasteryRepo_InitialStates(t *testing.T) {
	s := openTestStore(t)
	th, g := createTestThread(t, s, "u1")

	states, err := s.MasteryRepo().States(context.Background(), "u1", th.ID)
	require.NoError(t, err)
	require.Len(t, states, g.Len())

	for _, n := range g.Nodes() {
		st, ok := states[n.ID]
		require.True(t, ok, "missing state for %s", n.ID)
		assert.Equal(t, 0.5, st.MasteryProbability)
		assert.Equal(t, 1.0, st.Uncertainty)
		assert.Equal(t, 0, st.EvidenceCount)
		assert.Nil(t, st.NextReviewAt)
		assert.Equal(t, n.RequiresConfirmation(), st.RequiresConfirmation)
	}

	other, err := s.MasteryRepo().States(context.Background(), "u2", th.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMasteryRepo_ApplyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	th, g := createTestThread(t, s, "u1")
	nodeID := g.IDs()[1]

	model := mastery.NewModel(mastery.DefaultConfig(), spacedrep.Scheduler{})
	cur, err := s.MasteryRepo().State(ctx, "u1", th.ID, nodeID)
	require.NoError(t, err)

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	next := model.ApplyEvidence(cur, mastery.Evidence{
		Correct:   false,
		Tags:      []string{"off-by-one"},
		Modality:  skillgraph.ModalityMultipleChoice,
		Timestamp: ts,
	})

	stored, err := s.MasteryRepo().Apply(ctx, Commit{
		UserID:   "u1",
		ThreadID: th.ID,
		State:    next,
		Evidence: EvidenceEventData{
			Timestamp: ts,
			Modality:  skillgraph.ModalityMultipleChoice,
			Tags:      []string{"off-by-one"},
			Response:  "3/4",
		},
		Transition: &MasteryEventData{FromStatus: "new", ToStatus: "learning", Trigger: "first-attempt"},
	})
	require.NoError(t, err)
	assert.Equal(t, cur.Version+1, stored.Version)

	reloaded, err := s.MasteryRepo().State(ctx, "u1", th.ID, nodeID)
	require.NoError(t, err)
	assert.Equal(t, stored.Version, reloaded.Version)
	assert.InDelta(t, next.MasteryProbability, reloaded.MasteryProbability, 1e-12)
	assert.Equal(t, map[string]int{"off-by-one": 0}, reloaded.MisconceptionTags)
	assert.Equal(t, map[skillgraph.Modality]int{skillgraph.ModalityMultipleChoice: 1}, reloaded.UnitTypesUsed)
	require.NotNil(t, reloaded.NextReviewAt)
	assert.True(t, next.NextReviewAt.Truncate(time.Millisecond).Equal(*reloaded.NextReviewAt))
	assert.True(t, ts.Equal(*reloaded.LastEvidenceAt))

	evidence, err := s.EventRepo().QueryEvidence(ctx, "u1", th.ID, nodeID, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, "3/4", evidence[0].Response)
	assert.Equal(t, []string{"off-by-one"}, evidence[0].Tags)
	assert.NotEmpty(t, evidence[0].EventID)

	events, err := s.EventRepo().QueryMasteryEvents(ctx, "u1", th.ID, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "first-attempt", events[0].Trigger)
	assert.Greater(t, events[0].Sequence, evidence[0].Sequence)
}

func TestMasteryRepo_ApplyConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	th, g := createTestThread(t, s, "u1")
	nodeID := g.IDs()[0]

	cur, err := s.MasteryRepo().State(ctx, "u1", th.ID, nodeID)
	require.NoError(t, err)

	commit := Commit{UserID: "u1", ThreadID: th.ID, State: cur}
	_, err = s.MasteryRepo().Apply(ctx, commit)
	require.NoError(t, err)

	// Same base version again: stale.
	_, err = s.MasteryRepo().Apply(ctx, commit)
	require.ErrorIs(t, err, ErrConflict)

	// A failed apply must not leave evidence behind.
	evidence, err := s.EventRepo().QueryEvidence(ctx, "u1", th.ID, nodeID, QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, evidence, 1)
}

func TestMasteryRepo_ApplyMissing(t *testing.T) {
	s := openTestStore(t)
	th, _ := createTestThread(t, s, "u1")
	_, err := s.MasteryRepo().Apply(context.Background(), Commit{
		UserID:   "u1",
		ThreadID: th.ID,
		State:    mastery.State{NodeID: "ghost"},
	})
	require.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
}

func TestMasteryRepo_ConcurrentApplyExactlyOneWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	th, g := createTestThread(t, s, "u1")
	nodeID := g.IDs()[0]

	cur, err := s.MasteryRepo().State(ctx, "u1", th.ID, nodeID)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MasteryRepo().Apply(ctx, Commit{UserID: "u1", ThreadID: th.ID, State: cur})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}

func TestMasteryRepo_CountDue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	th, g := createTestThread(t, s, "u1")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n, err := s.MasteryRepo().CountDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "unset review times are never due")

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	for i, at := range []*time.Time{&past, &future} {
		cur, err := s.MasteryRepo().State(ctx, "u1", th.ID, g.IDs()[i])
		require.NoError(t, err)
		cur.NextReviewAt = at
		_, err = s.MasteryRepo().Apply(ctx, Commit{UserID: "u1", ThreadID: th.ID, State: cur})
		require.NoError(t, err)
	}

	n, err = s.MasteryRepo().CountDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
