package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		mobile TEXT NOT NULL,
		national_id TEXT NOT NULL,
		purpose TEXT NOT NULL,
		host_name TEXT NOT NULL DEFAULT '',
		host_email TEXT NOT NULL DEFAULT '',
		photo TEXT NOT NULL,
		visitor_code TEXT NOT NULL UNIQUE,
		qr_code TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		approval_token TEXT NOT NULL,
		token_expires_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		decision_at TEXT,
		approved_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_visitors_status ON visitors(status)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_approval_token ON visitors(approval_token)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_created_at ON visitors(created_at)`,
}

// CreateSchema executes all necessary queries to build the tables and indexes.
// All statements are idempotent so it runs safely on every startup.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
