package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ThreadsColumns holds the columns for the "threads" table.
	ThreadsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// ThreadsTable holds the schema information for the "threads" table.
	ThreadsTable = &schema.Table{
		Name:       "threads",
		Columns:    ThreadsColumns,
		PrimaryKey: []*schema.Column{ThreadsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "thread_user_id",
				Unique:  false,
				Columns: []*schema.Column{ThreadsColumns[1]},
			},
		},
	}

	// SkillNodesColumns holds the columns for the "skill_nodes" table.
	SkillNodesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "provisional_id", Type: field.TypeString, Default: ""},
		{Name: "name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "difficulty", Type: field.TypeFloat64, Default: 0},
		{Name: "misconceptions", Type: field.TypeString, Size: 2147483647, Default: "[]"},
		{Name: "templates", Type: field.TypeString, Size: 2147483647, Default: "{}"},
		{Name: "thread_id", Type: field.TypeString},
	}
	// SkillNodesTable holds the schema information for the "skill_nodes" table.
	SkillNodesTable = &schema.Table{
		Name:       "skill_nodes",
		Columns:    SkillNodesColumns,
		PrimaryKey: []*schema.Column{SkillNodesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "skill_nodes_threads_nodes",
				Columns:    []*schema.Column{SkillNodesColumns[8]},
				RefColumns: []*schema.Column{ThreadsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "skillnode_thread_id_position",
				Unique:  true,
				Columns: []*schema.Column{SkillNodesColumns[8], SkillNodesColumns[1]},
			},
		},
	}

	// SkillEdgesColumns holds the columns for the "skill_edges" table.
	SkillEdgesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "from_id", Type: field.TypeString},
		{Name: "to_id", Type: field.TypeString},
		{Name: "thread_id", Type: field.TypeString},
	}
	// SkillEdgesTable holds the schema information for the "skill_edges" table.
	SkillEdgesTable = &schema.Table{
		Name:       "skill_edges",
		Columns:    SkillEdgesColumns,
		PrimaryKey: []*schema.Column{SkillEdgesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "skill_edges_threads_edges",
				Columns:    []*schema.Column{SkillEdgesColumns[3]},
				RefColumns: []*schema.Column{ThreadsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "skilledge_thread_id_from_id_to_id",
				Unique:  true,
				Columns: []*schema.Column{SkillEdgesColumns[3], SkillEdgesColumns[1], SkillEdgesColumns[2]},
			},
		},
	}

	// MasteryStatesColumns holds the columns for the "mastery_states" table.
	MasteryStatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "mastery_probability", Type: field.TypeFloat64},
		{Name: "uncertainty", Type: field.TypeFloat64},
		{Name: "stability", Type: field.TypeFloat64, Default: 0},
		{Name: "misconception_tags", Type: field.TypeString, Size: 2147483647, Default: "{}"},
		{Name: "evidence_count", Type: field.TypeInt, Default: 0},
		{Name: "confirmation_count", Type: field.TypeInt, Default: 0},
		{Name: "unit_types_used", Type: field.TypeString, Size: 2147483647, Default: "{}"},
		{Name: "requires_confirmation", Type: field.TypeBool, Default: false},
		{Name: "has_applied_confirmation", Type: field.TypeBool, Default: false},
		{Name: "next_review_at", Type: field.TypeInt64, Nullable: true},
		{Name: "last_evidence_at", Type: field.TypeInt64, Nullable: true},
		{Name: "version", Type: field.TypeInt64, Default: 0},
		{Name: "thread_id", Type: field.TypeString},
	}
	// MasteryStatesTable holds the schema information for the "mastery_states" table.
	MasteryStatesTable = &schema.Table{
		Name:       "mastery_states",
		Columns:    MasteryStatesColumns,
		PrimaryKey: []*schema.Column{MasteryStatesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "mastery_states_threads_states",
				Columns:    []*schema.Column{MasteryStatesColumns[15]},
				RefColumns: []*schema.Column{ThreadsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "masterystate_user_id_thread_id_node_id",
				Unique:  true,
				Columns: []*schema.Column{MasteryStatesColumns[1], MasteryStatesColumns[15], MasteryStatesColumns[2]},
			},
			{
				Name:    "masterystate_next_review_at",
				Unique:  false,
				Columns: []*schema.Column{MasteryStatesColumns[12]},
			},
		},
	}

	// EvidenceEventsColumns holds the columns for the "evidence_events" table.
	EvidenceEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "thread_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "modality", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "tags", Type: field.TypeString, Size: 2147483647, Default: "[]"},
		{Name: "format_strength", Type: field.TypeFloat64, Default: 1},
		{Name: "response", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// EvidenceEventsTable holds the schema information for the "evidence_events" table.
	EvidenceEventsTable = &schema.Table{
		Name:       "evidence_events",
		Columns:    EvidenceEventsColumns,
		PrimaryKey: []*schema.Column{EvidenceEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "evidenceevent_user_id_thread_id_node_id",
				Unique:  false,
				Columns: []*schema.Column{EvidenceEventsColumns[4], EvidenceEventsColumns[5], EvidenceEventsColumns[6]},
			},
			{
				Name:    "evidenceevent_timestamp",
				Unique:  false,
				Columns: []*schema.Column{EvidenceEventsColumns[2]},
			},
		},
	}

	// MasteryEventsColumns holds the columns for the "mastery_events" table.
	MasteryEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeString},
		{Name: "thread_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "from_status", Type: field.TypeString},
		{Name: "to_status", Type: field.TypeString},
		{Name: "trigger", Type: field.TypeString},
		{Name: "progress", Type: field.TypeFloat64, Default: 0},
	}
	// MasteryEventsTable holds the schema information for the "mastery_events" table.
	MasteryEventsTable = &schema.Table{
		Name:       "mastery_events",
		Columns:    MasteryEventsColumns,
		PrimaryKey: []*schema.Column{MasteryEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "masteryevent_user_id_thread_id",
				Unique:  false,
				Columns: []*schema.Column{MasteryEventsColumns[3], MasteryEventsColumns[4]},
			},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_provider",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[3]},
			},
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[5]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ThreadsTable,
		SkillNodesTable,
		SkillEdgesTable,
		MasteryStatesTable,
		EvidenceEventsTable,
		MasteryEventsTable,
		LlmRequestEventsTable,
	}
)

func init() {
	SkillNodesTable.ForeignKeys[0].RefTable = ThreadsTable
	SkillEdgesTable.ForeignKeys[0].RefTable = ThreadsTable
	MasteryStatesTable.ForeignKeys[0].RefTable = ThreadsTable
}

// migrate creates or updates all tables.
func migrate(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
