// Package migrate describes the prep tables with ent's schema types and
// applies them through ent's migration engine.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	SessionsTableName  = "prep_sessions"
	QuestionsTableName = "prep_questions"
)

var (
	// PrepSessionsColumns holds the columns for the "prep_sessions" table.
	PrepSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "role", Type: field.TypeString},
		{Name: "experience", Type: field.TypeString, Default: ""},
		{Name: "topics", Type: field.TypeJSON},
		{Name: "description", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// PrepSessionsTable holds the schema information for the "prep_sessions" table.
	PrepSessionsTable = &schema.Table{
		Name:       SessionsTableName,
		Columns:    PrepSessionsColumns,
		PrimaryKey: []*schema.Column{PrepSessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "prepsession_created_at",
				Unique:  false,
				Columns: []*schema.Column{PrepSessionsColumns[5]},
			},
		},
	}
	// PrepQuestionsColumns holds the columns for the "prep_questions" table.
	PrepQuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "question", Type: field.TypeString, Size: 2147483647},
		{Name: "answer", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "is_pinned", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
	}
	// PrepQuestionsTable holds the schema information for the "prep_questions" table.
	PrepQuestionsTable = &schema.Table{
		Name:       QuestionsTableName,
		Columns:    PrepQuestionsColumns,
		PrimaryKey: []*schema.Column{PrepQuestionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "prep_questions_prep_sessions_questions",
				Columns:    []*schema.Column{PrepQuestionsColumns[5]},
				RefColumns: []*schema.Column{PrepSessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "prepquestion_session_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{PrepQuestionsColumns[5], PrepQuestionsColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		PrepSessionsTable,
		PrepQuestionsTable,
	}
)

func init() {
	PrepQuestionsTable.ForeignKeys[0].RefTable = PrepSessionsTable
}

// Create runs the auto migration for all tables against drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
