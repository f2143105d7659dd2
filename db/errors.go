// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/ghpolls/models"
)

// PostgreSQL error codes
const (
	pqQueryCanceled      = "57014"
	pqAdminShutdown      = "57P01"
	pqCannotConnectNow   = "57P03"
	pqUniqueViolation    = "23505"
	pqConnectionFailures = "08"
)

// IsTransient reports whether err is a storage failure that should clear
// on its own: a cancelled or timed out statement, or a lost connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, models.ErrTransientStore) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqQueryCanceled, pqAdminShutdown, pqCannotConnectNow:
			return true
		}
		return pqErr.Code.Class() == pqConnectionFailures
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_INTERRUPT:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// IsUniqueViolation reports whether err was caused by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(sqliteErr.Error(), "UNIQUE")
	}

	return false
}
