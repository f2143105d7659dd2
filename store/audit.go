package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/models"
)

// AuditLog appends poll lifecycle events inside the caller's transaction,
// so an event is visible exactly when the change it describes is.
type AuditLog interface {
	Append(ctx context.Context, tx *sql.Tx, userID string, event models.AuditEvent) error
}

// TableAuditLog writes events to the user_audit_log table.
type TableAuditLog struct{}

func (TableAuditLog) Append(ctx context.Context, tx *sql.Tx, userID string, event models.AuditEvent) error {
	data, err := json.Marshal(event.EventData)
	if err != nil {
		return fmt.Errorf("failed to encode audit event data: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_audit_log (id, user_id, event, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, auth.GenerateID(), userID, event.Event, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append %s audit event: %w", event.Event, err)
	}
	return nil
}

// AuditEvents returns the user's audit events, oldest first.
func (s *Store) AuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event, event_data FROM user_audit_log
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			ev   models.AuditEvent
			data string
		)
		if err := rows.Scan(&ev.Event, &data); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &ev.EventData); err != nil {
			return nil, fmt.Errorf("failed to decode audit event data: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
