package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

var (
	// ErrNotFound is returned when a thread, node, or state does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-swap sees a newer version.
	ErrConflict = errors.New("version conflict")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Thread is a learner's run through one skill graph.
type Thread struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NewThread is everything persisted when a thread starts.
type NewThread struct {
	ID     string
	UserID string
	Title  string
	Graph  *skillgraph.Graph
	States []mastery.State

	// IDs maps the graph's storage IDs back to the authored IDs. Optional.
	IDs *skillgraph.IDMap
}

// ThreadRepo manages threads and their immutable skill graphs.
type ThreadRepo interface {
	// Create stores the thread, its graph, and the initial states in one
	// transaction.
	Create(ctx context.Context, t NewThread) (Thread, error)

	// Get returns a thread by ID.
	Get(ctx context.Context, id string) (Thread, error)

	// List returns a user's threads, newest first.
	List(ctx context.Context, userID string) ([]Thread, error)

	// Graph loads the thread's skill graph.
	Graph(ctx context.Context, threadID string) (*skillgraph.Graph, error)
}

// EvidenceEventData is one recorded attempt.
type EvidenceEventData struct {
	EventID        string
	Sequence       int64
	Timestamp      time.Time
	UserID         string
	ThreadID       string
	NodeID         string
	Modality       skillgraph.Modality
	Correct        bool
	Score          float64
	Tags           []string
	FormatStrength float64
	Response       string
}

// MasteryEventData records a mastery status change.
type MasteryEventData struct {
	Sequence   int64
	Timestamp  time.Time
	UserID     string
	ThreadID   string
	NodeID     string
	FromStatus string
	ToStatus   string
	Trigger    string
	Progress   float64
}

// Commit is the write-back of one attempt: the new state, the evidence that
// produced it, and an optional status change.
type Commit struct {
	UserID     string
	ThreadID   string
	State      mastery.State
	Evidence   EvidenceEventData
	Transition *MasteryEventData
}

// MasteryRepo stores per (user, thread, node) mastery states.
type MasteryRepo interface {
	// States returns every state of a thread for a user, keyed by node ID.
	States(ctx context.Context, userID, threadID string) (map[string]mastery.State, error)

	// State returns a single state.
	State(ctx context.Context, userID, threadID, nodeID string) (mastery.State, error)

	// Apply writes c.State if the stored version still equals
	// c.State.Version, appending the evidence and transition in the same
	// transaction. Returns the stored state with its new version, or
	// ErrConflict.
	Apply(ctx context.Context, c Commit) (mastery.State, error)

	// CountDue returns how many states have a review at or before now.
	CountDue(ctx context.Context, now time.Time) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsage aggregates LLM requests per provider and model.
type LLMUsage struct {
	Provider     string
	Model        string
	Requests     int
	Failures     int
	InputTokens  int64
	OutputTokens int64
	AvgLatencyMs float64
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMRequests returns LLM request events, newest first.
	QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventData, error)

	// LLMUsage summarizes LLM request events.
	LLMUsage(ctx context.Context) ([]LLMUsage, error)

	// QueryEvidence returns a node's evidence events, newest first. An
	// empty nodeID matches every node of the thread.
	QueryEvidence(ctx context.Context, userID, threadID, nodeID string, opts QueryOpts) ([]EvidenceEventData, error)

	// QueryMasteryEvents returns a thread's mastery events, newest first.
	QueryMasteryEvents(ctx context.Context, userID, threadID string, opts QueryOpts) ([]MasteryEventData, error)
}
