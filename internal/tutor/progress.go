package tutor

import (
	"context"
	"time"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/store"
)

// NodeStatus is one row of a thread's progress report.
type NodeStatus struct {
	NodeID             string          `json:"node_id"`
	Name               string          `json:"name"`
	Status             mastery.Status  `json:"status"`
	Verdict            mastery.Verdict `json:"verdict"`
	MasteryProbability float64         `json:"mastery_probability"`
	Uncertainty        float64         `json:"uncertainty"`
	EvidenceCount      int             `json:"evidence_count"`
	Misconceptions     []string        `json:"misconceptions"`
	NextReviewAt       *time.Time      `json:"next_review_at,omitempty"`
}

// ThreadStatus is the full progress report of a thread.
type ThreadStatus struct {
	Thread   store.Thread           `json:"thread"`
	Progress mastery.ThreadProgress `json:"progress"`
	Nodes    []NodeStatus           `json:"nodes"`
}

// Progress reports per-node gate verdicts and the thread summary, in
// graph order.
func (s *Service) Progress(ctx context.Context, userID, threadID string) (ThreadStatus, error) {
	if err := s.allow(userID, ActionProgress); err != nil {
		return ThreadStatus{}, err
	}
	snap, err := s.load(ctx, userID, threadID)
	if err != nil {
		return ThreadStatus{}, err
	}

	states := s.orderedStates(snap)
	critical := snap.graph.CriticalTagsByNode()
	ts := ThreadStatus{
		Thread:   snap.thread,
		Progress: s.model.CalculateThreadProgress(states, critical),
		Nodes:    make([]NodeStatus, 0, len(states)),
	}
	for _, st := range states {
		node, _ := snap.graph.Node(st.NodeID)
		tags := critical[st.NodeID]
		ts.Nodes = append(ts.Nodes, NodeStatus{
			NodeID:             st.NodeID,
			Name:               node.Name,
			Status:             s.model.StatusOf(st, tags),
			Verdict:            s.model.CheckMastery(st, tags),
			MasteryProbability: st.MasteryProbability,
			Uncertainty:        st.Uncertainty,
			EvidenceCount:      st.EvidenceCount,
			Misconceptions:     st.Tags(),
			NextReviewAt:       st.NextReviewAt,
		})
	}
	return ts, nil
}

// History returns recorded attempts, newest first. An empty nodeID covers
// the whole thread.
func (s *Service) History(ctx context.Context, userID, threadID, nodeID string, opts store.QueryOpts) ([]store.EvidenceEventData, error) {
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if th.UserID != userID {
		return nil, store.ErrNotFound
	}
	return s.events.QueryEvidence(ctx, userID, threadID, nodeID, opts)
}

// Transitions returns the thread's mastery status changes, newest first.
func (s *Service) Transitions(ctx context.Context, userID, threadID string, opts store.QueryOpts) ([]store.MasteryEventData, error) {
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if th.UserID != userID {
		return nil, store.ErrNotFound
	}
	return s.events.QueryMasteryEvents(ctx, userID, threadID, opts)
}
