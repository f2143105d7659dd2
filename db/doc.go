// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open supports PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite):

	conn, err := db.Open(db.TypePostgres, dsn, 5*time.Second)

# Schema Creation

CreateSchema initializes all required tables. Safe to call multiple
times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: owner and choices (JSON array)
  - poll_vote: one row per (user, poll, choice)
  - user_audit_log: POLL_CREATED and POLL_DELETED events

# Errors

IsTransient classifies timeouts, cancellations and dropped connections.
IsUniqueViolation detects duplicate votes from either driver.
*/
package db
