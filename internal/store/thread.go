package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/skillpath/internal/skillgraph"
)

// threadRepo implements ThreadRepo.
type threadRepo struct {
	db *sql.DB
}

func (r *threadRepo) Create(ctx context.Context, t NewThread) (Thread, error) {
	if t.Graph == nil {
		return Thread{}, errors.New("create thread: nil graph")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	th := Thread{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := execQ(ctx, tx, sqlite().Insert(ThreadsTable.Name).
			Columns("id", "user_id", "title", "created_at").
			Values(th.ID, th.UserID, th.Title, millis(th.CreatedAt)))
		if err != nil {
			return fmt.Errorf("insert thread: %w", err)
		}

		if err := insertNodes(ctx, tx, th.ID, t.Graph, t.IDs); err != nil {
			return err
		}

		if edges := t.Graph.Edges(); len(edges) > 0 {
			ins := sqlite().Insert(SkillEdgesTable.Name).Columns("thread_id", "from_id", "to_id")
			for _, e := range edges {
				ins.Values(th.ID, e.From, e.To)
			}
			if _, err := execQ(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert edges: %w", err)
			}
		}

		return insertStates(ctx, tx, th.UserID, th.ID, t.States)
	})
	if err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return th, nil
}

func insertNodes(ctx context.Context, tx dbtx, threadID string, g *skillgraph.Graph, ids *skillgraph.IDMap) error {
	if g.Len() == 0 {
		return nil
	}
	ins := sqlite().Insert(SkillNodesTable.Name).Columns(
		"id", "thread_id", "position", "provisional_id", "name", "description",
		"difficulty", "misconceptions", "templates",
	)
	for i, n := range g.Nodes() {
		misc, err := encodeJSON(nonNilSlice(n.Misconceptions))
		if err != nil {
			return fmt.Errorf("node %s misconceptions: %w", n.ID, err)
		}
		tmpl, err := encodeJSON(nonNilMap(n.Templates))
		if err != nil {
			return fmt.Errorf("node %s templates: %w", n.ID, err)
		}
		prov := ""
		if ids != nil {
			prov, _ = ids.Provisional(n.ID)
		}
		ins.Values(n.ID, threadID, i, prov, n.Name, n.Description, n.Difficulty, misc, tmpl)
	}
	if _, err := execQ(ctx, tx, ins); err != nil {
		return fmt.Errorf("insert nodes: %w", err)
	}
	return nil
}

func nonNilSlice(m []skillgraph.Misconception) []skillgraph.Misconception {
	if m == nil {
		return []skillgraph.Misconception{}
	}
	return m
}

func nonNilMap(m map[skillgraph.Modality]skillgraph.AssessmentTemplate) map[skillgraph.Modality]skillgraph.AssessmentTemplate {
	if m == nil {
		return map[skillgraph.Modality]skillgraph.AssessmentTemplate{}
	}
	return m
}

func (r *threadRepo) Get(ctx context.Context, id string) (Thread, error) {
	query, args := sqlite().Select("id", "user_id", "title", "created_at").
		From(entsql.Table(ThreadsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		th      Thread
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&th.ID, &th.UserID, &th.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, fmt.Errorf("thread %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Thread{}, fmt.Errorf("query thread: %w", err)
	}
	th.CreatedAt = fromMillis(created)
	return th, nil
}

func (r *threadRepo) List(ctx context.Context, userID string) ([]Thread, error) {
	rows, err := queryQ(ctx, r.db, sqlite().Select("id", "user_id", "title", "created_at").
		From(entsql.Table(ThreadsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), "id"))
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		var (
			th      Thread
			created int64
		)
		if err := rows.Scan(&th.ID, &th.UserID, &th.Title, &created); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		th.CreatedAt = fromMillis(created)
		out = append(out, th)
	}
	return out, rows.Err()
}

func (r *threadRepo) Graph(ctx context.Context, threadID string) (*skillgraph.Graph, error) {
	if _, err := r.Get(ctx, threadID); err != nil {
		return nil, err
	}

	rows, err := queryQ(ctx, r.db, sqlite().Select(
		"id", "name", "description", "difficulty", "misconceptions", "templates",
	).
		From(entsql.Table(SkillNodesTable.Name)).
		Where(entsql.EQ("thread_id", threadID)).
		OrderBy("position"))
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	var (
		nodes []skillgraph.SkillNode
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			n          skillgraph.SkillNode
			misc, tmpl string
		)
		if err := rows.Scan(&n.ID, &n.Name, &n.Description, &n.Difficulty, &misc, &tmpl); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if err := decodeJSON(misc, &n.Misconceptions); err != nil {
			rows.Close()
			return nil, fmt.Errorf("node %s misconceptions: %w", n.ID, err)
		}
		if err := decodeJSON(tmpl, &n.Templates); err != nil {
			rows.Close()
			return nil, fmt.Errorf("node %s templates: %w", n.ID, err)
		}
		if len(n.Misconceptions) == 0 {
			n.Misconceptions = nil
		}
		if len(n.Templates) == 0 {
			n.Templates = nil
		}
		index[n.ID] = len(nodes)
		nodes = append(nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	rows, err = queryQ(ctx, r.db, sqlite().Select("from_id", "to_id").
		From(entsql.Table(SkillEdgesTable.Name)).
		Where(entsql.EQ("thread_id", threadID)).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		i, ok := index[to]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s targets unknown node", from, to)
		}
		nodes[i].Prerequisites = append(nodes[i].Prerequisites, from)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	g, err := skillgraph.NewGraph(nodes)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", threadID, err)
	}
	return g, nil
}
