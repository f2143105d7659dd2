// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open connects to the database and verifies the connection.
//
// For PostgreSQL a positive statementTimeout is applied server side, so
// long-running queries fail with query_canceled instead of hanging the
// request. SQLite has no statement timeout; it waits up to the same
// duration on a locked database instead.
func Open(dbType, dsn string, statementTimeout time.Duration) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch dbType {
	case TypePostgres:
		conn, err = sql.Open("postgres", withStatementTimeout(dsn, statementTimeout))
	case TypeSQLite:
		conn, err = sql.Open("sqlite", withPragmas(dsn, statementTimeout))
		if err == nil {
			// One writer at a time; callers never query outside an open
			// transaction while holding it.
			conn.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dbType, err)
	}

	return conn, nil
}

func withStatementTimeout(dsn string, timeout time.Duration) string {
	if timeout <= 0 {
		return dsn
	}
	ms := strconv.FormatInt(timeout.Milliseconds(), 10)

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		if q.Get("statement_timeout") == "" {
			q.Set("statement_timeout", ms)
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	// key=value form
	if strings.Contains(dsn, "statement_timeout=") {
		return dsn
	}
	return strings.TrimSpace(dsn + " statement_timeout=" + ms)
}

func withPragmas(dsn string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
		"_time_format=sqlite",
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}
