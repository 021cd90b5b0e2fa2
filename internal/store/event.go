package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// eventRepo implements EventRepo backed by the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func appendEvidence(ctx context.Context, tx dbtx, seq *sequenceCounter, data EvidenceEventData) error {
	seqNum, err := seq.NextTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if data.EventID == "" {
		data.EventID = uuid.NewString()
	}
	tags := data.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := encodeJSON(tags)
	if err != nil {
		return err
	}
	_, err = execQ(ctx, tx, sqlite().Insert(EvidenceEventsTable.Name).
		Columns("sequence", "timestamp", "event_id", "user_id", "thread_id", "node_id",
			"modality", "correct", "score", "tags", "format_strength", "response").
		Values(seqNum, millis(stamp(data.Timestamp)), data.EventID, data.UserID, data.ThreadID, data.NodeID,
			string(data.Modality), data.Correct, data.Score, encoded, data.FormatStrength, data.Response))
	if err != nil {
		return fmt.Errorf("save evidence event: %w", err)
	}
	return nil
}

func appendMasteryEvent(ctx context.Context, tx dbtx, seq *sequenceCounter, data MasteryEventData) error {
	seqNum, err := seq.NextTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	_, err = execQ(ctx, tx, sqlite().Insert(MasteryEventsTable.Name).
		Columns("sequence", "timestamp", "user_id", "thread_id", "node_id",
			"from_status", "to_status", "trigger", "progress").
		Values(seqNum, millis(stamp(data.Timestamp)), data.UserID, data.ThreadID, data.NodeID,
			data.FromStatus, data.ToStatus, data.Trigger, data.Progress))
	if err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = execQ(ctx, r.db, sqlite().Insert(LlmRequestEventsTable.Name).
		Columns("sequence", "timestamp", "provider", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
			"request_body", "response_body").
		Values(seqNum, millis(stamp(data.Timestamp)), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage,
			data.RequestBody, data.ResponseBody))
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// eventSelector applies QueryOpts to a select over an event table.
func eventSelector(table string, columns []string, opts QueryOpts, preds ...*entsql.Predicate) *entsql.Selector {
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", millis(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", millis(opts.To)))
	}
	sel := sqlite().Select(columns...).From(entsql.Table(table))
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	return sel
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEventData, error) {
	rows, err := queryQ(ctx, r.db, eventSelector(LlmRequestEventsTable.Name, []string{
		"sequence", "timestamp", "provider", "model", "purpose",
		"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
		"request_body", "response_body",
	}, opts))
	if err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventData
	for rows.Next() {
		var (
			e  LLMRequestEventData
			ts int64
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
			&e.RequestBody, &e.ResponseBody); err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsage(ctx context.Context) ([]LLMUsage, error) {
	events, err := r.QueryLLMRequests(ctx, QueryOpts{})
	if err != nil {
		return nil, err
	}

	type key struct{ provider, model string }
	agg := make(map[key]*LLMUsage)
	latency := make(map[key]int64)
	for _, e := range events {
		k := key{e.Provider, e.Model}
		u, ok := agg[k]
		if !ok {
			u = &LLMUsage{Provider: e.Provider, Model: e.Model}
			agg[k] = u
		}
		u.Requests++
		if !e.Success {
			u.Failures++
		}
		u.InputTokens += int64(e.InputTokens)
		u.OutputTokens += int64(e.OutputTokens)
		latency[k] += e.LatencyMs
	}

	out := make([]LLMUsage, 0, len(agg))
	for k, u := range agg {
		u.AvgLatencyMs = float64(latency[k]) / float64(u.Requests)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}

func (r *eventRepo) QueryEvidence(ctx context.Context, userID, threadID, nodeID string, opts QueryOpts) ([]EvidenceEventData, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("user_id", userID),
		entsql.EQ("thread_id", threadID),
	}
	if nodeID != "" {
		preds = append(preds, entsql.EQ("node_id", nodeID))
	}
	rows, err := queryQ(ctx, r.db, eventSelector(EvidenceEventsTable.Name, []string{
		"sequence", "timestamp", "event_id", "user_id", "thread_id", "node_id",
		"modality", "correct", "score", "tags", "format_strength", "response",
	}, opts, preds...))
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []EvidenceEventData
	for rows.Next() {
		var (
			e        EvidenceEventData
			ts       int64
			modality string
			tags     string
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.EventID, &e.UserID, &e.ThreadID, &e.NodeID,
			&modality, &e.Correct, &e.Score, &tags, &e.FormatStrength, &e.Response); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		e.Modality = skillgraph.Modality(modality)
		if err := decodeJSON(tags, &e.Tags); err != nil {
			return nil, err
		}
		if len(e.Tags) == 0 {
			e.Tags = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) QueryMasteryEvents(ctx context.Context, userID, threadID string, opts QueryOpts) ([]MasteryEventData, error) {
	rows, err := queryQ(ctx, r.db, eventSelector(MasteryEventsTable.Name, []string{
		"sequence", "timestamp", "user_id", "thread_id", "node_id",
		"from_status", "to_status", "trigger", "progress",
	}, opts, entsql.EQ("user_id", userID), entsql.EQ("thread_id", threadID)))
	if err != nil {
		return nil, fmt.Errorf("query mastery events: %w", err)
	}
	defer rows.Close()

	var out []MasteryEventData
	for rows.Next() {
		var (
			e  MasteryEventData
			ts int64
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.UserID, &e.ThreadID, &e.NodeID,
			&e.FromStatus, &e.ToStatus, &e.Trigger, &e.Progress); err != nil {
			return nil, fmt.Errorf("scan mastery event: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
