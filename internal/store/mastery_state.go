package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/skillgraph"
)

// masteryRepo implements MasteryRepo.
type masteryRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var stateColumns = []string{
	"node_id", "mastery_probability", "uncertainty", "stability",
	"misconception_tags", "evidence_count", "confirmation_count", "unit_types_used",
	"requires_confirmation", "has_applied_confirmation",
	"next_review_at", "last_evidence_at", "version",
}

func insertStates(ctx context.Context, tx dbtx, userID, threadID string, states []mastery.State) error {
	if len(states) == 0 {
		return nil
	}
	ins := sqlite().Insert(MasteryStatesTable.Name).Columns(append([]string{"user_id", "thread_id"}, stateColumns...)...)
	for _, s := range states {
		tags, units, err := encodeStateMaps(s)
		if err != nil {
			return fmt.Errorf("state %s: %w", s.NodeID, err)
		}
		ins.Values(
			userID, threadID,
			s.NodeID, s.MasteryProbability, s.Uncertainty, s.Stability,
			tags, s.EvidenceCount, s.ConfirmationCount, units,
			s.RequiresConfirmation, s.HasAppliedConfirmation,
			nullMillis(s.NextReviewAt), nullMillis(s.LastEvidenceAt), s.Version,
		)
	}
	if _, err := execQ(ctx, tx, ins); err != nil {
		return fmt.Errorf("insert states: %w", err)
	}
	return nil
}

func encodeStateMaps(s mastery.State) (string, string, error) {
	tags := s.MisconceptionTags
	if tags == nil {
		tags = map[string]int{}
	}
	units := s.UnitTypesUsed
	if units == nil {
		units = map[skillgraph.Modality]int{}
	}
	t, err := encodeJSON(tags)
	if err != nil {
		return "", "", err
	}
	u, err := encodeJSON(units)
	if err != nil {
		return "", "", err
	}
	return t, u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (mastery.State, error) {
	var (
		s            mastery.State
		tags, units  string
		next, latest sql.NullInt64
	)
	err := row.Scan(
		&s.NodeID, &s.MasteryProbability, &s.Uncertainty, &s.Stability,
		&tags, &s.EvidenceCount, &s.ConfirmationCount, &units,
		&s.RequiresConfirmation, &s.HasAppliedConfirmation,
		&next, &latest, &s.Version,
	)
	if err != nil {
		return mastery.State{}, err
	}
	if err := decodeJSON(tags, &s.MisconceptionTags); err != nil {
		return mastery.State{}, fmt.Errorf("misconception tags: %w", err)
	}
	if err := decodeJSON(units, &s.UnitTypesUsed); err != nil {
		return mastery.State{}, fmt.Errorf("unit types: %w", err)
	}
	if len(s.MisconceptionTags) == 0 {
		s.MisconceptionTags = nil
	}
	if len(s.UnitTypesUsed) == 0 {
		s.UnitTypesUsed = nil
	}
	s.NextReviewAt = timeFromNull(next)
	s.LastEvidenceAt = timeFromNull(latest)
	return s, nil
}

func (r *masteryRepo) States(ctx context.Context, userID, threadID string) (map[string]mastery.State, error) {
	rows, err := queryQ(ctx, r.db, sqlite().Select(stateColumns...).
		From(entsql.Table(MasteryStatesTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("thread_id", threadID),
		)))
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	out := make(map[string]mastery.State)
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out[s.NodeID] = s
	}
	return out, rows.Err()
}

func (r *masteryRepo) State(ctx context.Context, userID, threadID, nodeID string) (mastery.State, error) {
	return getState(ctx, r.db, userID, threadID, nodeID)
}

func getState(ctx context.Context, db dbtx, userID, threadID, nodeID string) (mastery.State, error) {
	query, args := sqlite().Select(stateColumns...).
		From(entsql.Table(MasteryStatesTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("thread_id", threadID),
			entsql.EQ("node_id", nodeID),
		)).
		Query()
	s, err := scanState(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return mastery.State{}, fmt.Errorf("state %s/%s/%s: %w", userID, threadID, nodeID, ErrNotFound)
	}
	if err != nil {
		return mastery.State{}, fmt.Errorf("query state: %w", err)
	}
	return s, nil
}

func (r *masteryRepo) Apply(ctx context.Context, c Commit) (mastery.State, error) {
	s := c.State
	tags, units, err := encodeStateMaps(s)
	if err != nil {
		return mastery.State{}, fmt.Errorf("state %s: %w", s.NodeID, err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := execQ(ctx, tx, sqlite().Update(MasteryStatesTable.Name).
			Set("mastery_probability", s.MasteryProbability).
			Set("uncertainty", s.Uncertainty).
			Set("stability", s.Stability).
			Set("misconception_tags", tags).
			Set("evidence_count", s.EvidenceCount).
			Set("confirmation_count", s.ConfirmationCount).
			Set("unit_types_used", units).
			Set("requires_confirmation", s.RequiresConfirmation).
			Set("has_applied_confirmation", s.HasAppliedConfirmation).
			Set("next_review_at", nullMillis(s.NextReviewAt)).
			Set("last_evidence_at", nullMillis(s.LastEvidenceAt)).
			Add("version", 1).
			Where(entsql.And(
				entsql.EQ("user_id", c.UserID),
				entsql.EQ("thread_id", c.ThreadID),
				entsql.EQ("node_id", s.NodeID),
				entsql.EQ("version", s.Version),
			)))
		if err != nil {
			return fmt.Errorf("update state: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			if _, err := getState(ctx, tx, c.UserID, c.ThreadID, s.NodeID); err != nil {
				return err
			}
			return fmt.Errorf("state %s at version %d: %w", s.NodeID, s.Version, ErrConflict)
		}

		ev := c.Evidence
		ev.UserID, ev.ThreadID, ev.NodeID = c.UserID, c.ThreadID, s.NodeID
		if err := appendEvidence(ctx, tx, r.seq, ev); err != nil {
			return err
		}
		if c.Transition != nil {
			tr := *c.Transition
			tr.UserID, tr.ThreadID, tr.NodeID = c.UserID, c.ThreadID, s.NodeID
			if err := appendMasteryEvent(ctx, tx, r.seq, tr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mastery.State{}, err
	}

	s = s.Clone()
	s.Version++
	return s, nil
}

func (r *masteryRepo) CountDue(ctx context.Context, now time.Time) (int, error) {
	query, args := sqlite().Select(entsql.Count("*")).
		From(entsql.Table(MasteryStatesTable.Name)).
		Where(entsql.And(
			entsql.NotNull("next_review_at"),
			entsql.LTE("next_review_at", millis(now)),
		)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count due reviews: %w", err)
	}
	return n, nil
}
