package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order; never edit one that has shipped, append a new version instead
var migrations = []migration{
	{
		version: 1,
		name:    "create tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				phone TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT 'Employee' CHECK (role IN ('Admin', 'Employee')),
				department TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
				password_hash TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS leads (
				id SERIAL PRIMARY KEY,
				lead_name TEXT NOT NULL,
				company_name TEXT NOT NULL DEFAULT '',
				contact_person TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				assignee TEXT NULL,
				status TEXT NOT NULL DEFAULT 'New'
					CHECK (status IN ('New', 'Contacted', 'Qualified', 'Proposal', 'Negotiation', 'Won', 'Lost')),
				priority TEXT NOT NULL DEFAULT 'Medium' CHECK (priority IN ('Low', 'Medium', 'High', 'Urgent')),
				lead_source TEXT NOT NULL DEFAULT '',
				service TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				next_follow_up_date DATE NULL,
				follow_up_time TEXT NULL,
				overdue_reminder_sent BOOLEAN NOT NULL DEFAULT false,
				upcoming_reminder_sent BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			// lead_id columns are soft references; history outlives the lead
			`CREATE TABLE IF NOT EXISTS sticky_notes (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL,
				email TEXT NOT NULL,
				lead_id INTEGER NULL,
				content TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT 'yellow',
				reminder_at TIMESTAMPTZ NOT NULL,
				is_reminder_sent BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS follow_up_history (
				id SERIAL PRIMARY KEY,
				lead_id INTEGER NOT NULL,
				description TEXT NOT NULL,
				notes TEXT NULL,
				status TEXT NULL,
				priority TEXT NULL,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS call_logs (
				id SERIAL PRIMARY KEY,
				lead_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				email TEXT NULL,
				phone TEXT NULL,
				description TEXT NOT NULL,
				duration_minutes INTEGER NULL,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		version: 2,
		name:    "reminder indexes",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_leads_assignee ON leads(assignee)`,
			`CREATE INDEX IF NOT EXISTS idx_leads_follow_up ON leads(next_follow_up_date)
				WHERE status NOT IN ('Won', 'Lost')`,
			`CREATE INDEX IF NOT EXISTS idx_sticky_notes_due ON sticky_notes(reminder_at) WHERE NOT is_reminder_sent`,
			`CREATE INDEX IF NOT EXISTS idx_sticky_notes_user_id ON sticky_notes(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_follow_up_history_lead_id ON follow_up_history(lead_id)`,
			`CREATE INDEX IF NOT EXISTS idx_call_logs_lead_id ON call_logs(lead_id)`,
		},
	},
	{
		version: 3,
		name:    "case-insensitive assignee lookups",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_leads_assignee_folded ON leads(lower(btrim(assignee)))`,
		},
	},
}

// SchemaVersion is the version Migrate brings the database to
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies every migration newer than the recorded version, each in its own transaction.
// It returns the version the database was at before.
func Migrate(ctx context.Context, db *sqlx.DB) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("migrate: db is nil")
	}

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	if err != nil {
		return 0, fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, fmt.Errorf("migrate: read current version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err = apply(ctx, db, m)
		if err != nil {
			return current, err
		}
	}

	return current, nil
}

func apply(ctx context.Context, db *sqlx.DB, m migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate %d: begin transaction: %w", m.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, st := range m.statements {
		_, err = tx.ExecContext(ctx, st)
		if err != nil {
			return fmt.Errorf("migrate %d (%s): %w", m.version, m.name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
	if err != nil {
		return fmt.Errorf("migrate %d: record schema version: %w", m.version, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("migrate %d: commit transaction: %w", m.version, err)
	}
	return nil
}
