package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// The same DDL runs on PostgreSQL and SQLite. created_at is a naive
// TIMESTAMP column holding UTC; see package timestamp.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		parent_channel_id TEXT NOT NULL,
		name TEXT NOT NULL,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		auto_archive_duration INTEGER NOT NULL DEFAULT 0,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		type TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		thread_id TEXT REFERENCES threads(id)
	)`,
}

var indexStatements = []string{
	"CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id)",
	"CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id)",
	"CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)",
	"CREATE INDEX IF NOT EXISTS idx_threads_parent_channel ON threads(parent_channel_id)",
}

// InitSchema creates the messages and threads tables if they do not exist
func (s *SQLStore) InitSchema(ctx context.Context) error {
	slog.Info("Initializing database schema...", "driver", s.driver)

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, indexSQL := range indexStatements {
		if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
			slog.Warn("Failed to create index", "error", err, "sql", indexSQL)
		}
	}

	slog.Info("Database schema initialized successfully")
	return nil
}
