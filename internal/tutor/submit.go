package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/store"
)

// Attempt is a learner's answer. Either ExerciseID and Answer are set, and
// the answer is graded against the issued exercise, or the caller graded
// the attempt itself and fills Correct, Score, Tags, and Modality.
type Attempt struct {
	ExerciseID string `json:"exercise_id,omitempty"`
	Answer     string `json:"answer,omitempty"`

	Correct        bool                `json:"correct"`
	Score          *float64            `json:"score,omitempty"`
	Tags           []string            `json:"tags,omitempty"`
	Modality       skillgraph.Modality `json:"modality,omitempty"`
	FormatStrength float64             `json:"format_strength,omitempty"`
	Timestamp      time.Time           `json:"timestamp,omitempty"`
}

// Result is the outcome of one submitted attempt.
type Result struct {
	NodeID     string              `json:"node_id"`
	Passed     bool                `json:"passed"`
	Evidence   mastery.Evidence    `json:"-"`
	State      mastery.State       `json:"-"`
	Verdict    mastery.Verdict     `json:"verdict"`
	Transition *mastery.Transition `json:"transition,omitempty"`

	// Answer and Explanation are revealed once a server-graded exercise
	// has been answered.
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	// Diagnosis is set when a wrong answer to an issued exercise was
	// diagnosed.
	Diagnosis *diagnosis.Result `json:"diagnosis,omitempty"`
}

// Submit grades an attempt and folds it into the node's mastery state.
// Submissions for the same (user, thread, node) are serialized in process;
// writers in other processes are detected by the store's version check
// and the update is recomputed from the fresh state.
func (s *Service) Submit(ctx context.Context, userID, threadID, nodeID string, a Attempt) (Result, error) {
	if err := s.allow(userID, ActionSubmit); err != nil {
		return Result{}, err
	}
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return Result{}, err
	}
	if th.UserID != userID {
		return Result{}, fmt.Errorf("thread %s: %w", threadID, store.ErrNotFound)
	}
	g, err := s.threads.Graph(ctx, threadID)
	if err != nil {
		return Result{}, err
	}
	node, ok := g.Node(nodeID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}

	ev, ex, err := s.evidence(userID, threadID, nodeID, a)
	if err != nil {
		return Result{}, err
	}
	critical := node.CriticalTags()

	var diag *diagnosis.Result
	if ex != nil && strings.TrimSpace(a.Answer) != "" && s.needsDiagnosis(ev) {
		diag = s.diagnose(ctx, userID, threadID, node, ex, a.Answer)
		if diag.Misconception() {
			ev.Tags = []string{diag.Tag}
		}
	}

	unlock := s.locks.Lock(userID + "|" + threadID + "|" + nodeID)
	defer unlock()

	// An issued exercise is answered once. Concurrent submissions of the
	// same exercise share this lock, so only the first claim succeeds.
	var claimed issuedExercise
	if ex != nil {
		var ok bool
		claimed, ok = s.issued.Peek(ex.ID)
		if !ok || !s.issued.Remove(ex.ID) {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownExercise, ex.ID)
		}
	}

	var res Result
	for attempt := 0; ; attempt++ {
		res, err = s.apply(ctx, userID, threadID, nodeID, critical, ev, a.Answer)
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= s.maxCASRetries {
			break
		}
		s.metrics.CASRetry()
		s.logger.Debug("mastery state conflict, retrying",
			zap.String("thread", threadID),
			zap.String("node", nodeID),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		if ex != nil {
			s.issued.Add(ex.ID, claimed)
		}
		return Result{}, err
	}

	if ex != nil {
		res.Answer = ex.Grading.Answer
		res.Explanation = ex.Explanation
	}
	res.Diagnosis = diag

	s.metrics.Evidence(res.Passed)
	if res.Transition != nil {
		s.metrics.Transition(string(res.Transition.To))
		s.logger.Info("mastery status changed",
			zap.String("user", userID),
			zap.String("thread", threadID),
			zap.String("node", nodeID),
			zap.String("from", string(res.Transition.From)),
			zap.String("to", string(res.Transition.To)))
	}
	return res, nil
}

// evidence turns an attempt into engine evidence, grading it against the
// issued exercise when one is referenced.
func (s *Service) evidence(userID, threadID, nodeID string, a Attempt) (mastery.Evidence, *contentgen.Exercise, error) {
	at := a.Timestamp
	if at.IsZero() {
		at = s.now()
	}

	if a.ExerciseID != "" {
		issued, ok := s.issued.Get(a.ExerciseID)
		if !ok || issued.UserID != userID || issued.ThreadID != threadID {
			return mastery.Evidence{}, nil, fmt.Errorf("%w: %s", ErrUnknownExercise, a.ExerciseID)
		}
		if issued.Exercise.NodeID != nodeID {
			return mastery.Evidence{}, nil, fmt.Errorf("%w: exercise %s is for node %s",
				ErrInvalidAttempt, a.ExerciseID, issued.Exercise.NodeID)
		}
		return contentgen.Grade(issued.Exercise, a.Answer, at), issued.Exercise, nil
	}

	if a.Modality != "" && !a.Modality.Valid() {
		return mastery.Evidence{}, nil, fmt.Errorf("%w: unknown modality %q", ErrInvalidAttempt, a.Modality)
	}
	if a.Score != nil && (*a.Score < 0 || *a.Score > 1) {
		return mastery.Evidence{}, nil, fmt.Errorf("%w: score %v outside [0,1]", ErrInvalidAttempt, *a.Score)
	}
	return mastery.Evidence{
		Correct:        a.Correct,
		Score:          a.Score,
		Tags:           a.Tags,
		Modality:       a.Modality,
		FormatStrength: a.FormatStrength,
		Timestamp:      at,
	}, nil, nil
}

func (s *Service) needsDiagnosis(ev mastery.Evidence) bool {
	return s.diag != nil && len(ev.Tags) == 0 && !ev.Passed(s.model.Config())
}

// diagnose runs before the node lock is taken; the state it reads only
// informs the classifiers.
func (s *Service) diagnose(ctx context.Context, userID, threadID string, node skillgraph.SkillNode, ex *contentgen.Exercise, answer string) *diagnosis.Result {
	cur, err := s.states.State(ctx, userID, threadID, node.ID)
	if err != nil {
		s.logger.Warn("diagnosis skipped, state unavailable",
			zap.String("thread", threadID),
			zap.String("node", node.ID),
			zap.Error(err))
		return nil
	}
	res := s.diag.Diagnose(ctx, &diagnosis.Input{
		Node:     node,
		Exercise: ex,
		Answer:   answer,
		State:    cur,
	})
	if res != nil {
		s.metrics.Diagnosis(string(res.Category))
	}
	return res
}

// apply reads the current state, integrates ev, and writes it back with a
// version check.
func (s *Service) apply(ctx context.Context, userID, threadID, nodeID string, critical []string, ev mastery.Evidence, response string) (Result, error) {
	cur, err := s.states.State(ctx, userID, threadID, nodeID)
	if err != nil {
		return Result{}, err
	}

	next := s.model.ApplyEvidence(cur, ev)
	next.Version = cur.Version
	verdict := s.model.CheckMastery(next, critical)
	passed := ev.Passed(s.model.Config())

	res := Result{
		NodeID:   nodeID,
		Passed:   passed,
		Evidence: ev,
		Verdict:  verdict,
	}

	from := s.model.StatusOf(cur, critical)
	to := s.model.StatusOf(next, critical)
	var transition *store.MasteryEventData
	if from != to {
		res.Transition = &mastery.Transition{
			NodeID:  nodeID,
			From:    from,
			To:      to,
			Trigger: trigger(from, to),
		}
		transition = &store.MasteryEventData{
			Timestamp:  ev.Timestamp,
			FromStatus: string(from),
			ToStatus:   string(to),
			Trigger:    res.Transition.Trigger,
			Progress:   verdict.Progress,
		}
	}

	score := ev.Value()
	stored, err := s.states.Apply(ctx, store.Commit{
		UserID:   userID,
		ThreadID: threadID,
		State:    next,
		Evidence: store.EvidenceEventData{
			Timestamp:      ev.Timestamp,
			Modality:       ev.Modality,
			Correct:        passed,
			Score:          score,
			Tags:           ev.Tags,
			FormatStrength: ev.FormatStrength,
			Response:       response,
		},
		Transition: transition,
	})
	if err != nil {
		return Result{}, err
	}
	res.State = stored
	return res, nil
}

func trigger(from, to mastery.Status) string {
	switch {
	case to == mastery.StatusMastered:
		return "gate-passed"
	case from == mastery.StatusMastered:
		return "gate-lost"
	default:
		return "first-attempt"
	}
}
