// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema only uses types and clauses understood by both PostgreSQL
// and SQLite. Timestamps are always written by the application in UTC.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    choices_json TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_user_id ON poll(user_id);

-- Votes
CREATE TABLE IF NOT EXISTS poll_vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id),
    user_id TEXT NOT NULL,
    choice TEXT NOT NULL,
    voter_display_name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    UNIQUE (user_id, poll_id, choice)
);

CREATE INDEX IF NOT EXISTS idx_poll_vote_poll_id ON poll_vote(poll_id);
CREATE INDEX IF NOT EXISTS idx_poll_vote_user_id ON poll_vote(user_id);

-- Audit log
CREATE TABLE IF NOT EXISTS user_audit_log (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    event TEXT NOT NULL,
    event_data TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_user_audit_log_user_id ON user_audit_log(user_id);
`
