// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/models"
)

// ImageInvalidator drops the cached chart image of a poll.
type ImageInvalidator interface {
	Invalidate(ctx context.Context, pollID string) error
}

// Store persists polls and votes.
type Store struct {
	db     *sql.DB
	audit  AuditLog
	images ImageInvalidator
	now    func() time.Time
}

// New creates a Store. images may be nil when no image cache is configured.
func New(db *sql.DB, audit AuditLog, images ImageInvalidator) *Store {
	if audit == nil {
		audit = TableAuditLog{}
	}
	return &Store{
		db:     db,
		audit:  audit,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreatePoll inserts a poll owned by ownerID and records POLL_CREATED in
// the same transaction. The per-user poll limit is enforced by callers.
func (s *Store) CreatePoll(ctx context.Context, ownerID string, choices []string) (models.Poll, error) {
	poll := models.Poll{
		ID:        auth.GenerateID(),
		UserID:    ownerID,
		Choices:   choices,
		CreatedAt: s.now(),
	}

	encoded, err := encodeChoices(choices)
	if err != nil {
		return models.Poll{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll (id, user_id, choices_json, created_at)
			VALUES ($1, $2, $3, $4)
		`, poll.ID, poll.UserID, encoded, poll.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert poll: %w", err)
		}

		return s.audit.Append(ctx, tx, ownerID, models.AuditEvent{
			Event:     models.EventPollCreated,
			EventData: map[string]string{"poll_id": poll.ID},
		})
	})
	if err != nil {
		return models.Poll{}, err
	}

	zap.L().Info("poll created", zap.String("poll_id", poll.ID), zap.String("user_id", ownerID))
	return poll, nil
}

// GetPoll loads a poll by id.
func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	if !auth.IsValidID(id) {
		return models.Poll{}, models.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, choices_json, created_at FROM poll WHERE id = $1
	`, id)
	return scanPoll(row)
}

// GetOwnedPoll loads a poll by id and owner. A poll owned by someone else
// is reported exactly like a missing one.
func (s *Store) GetOwnedPoll(ctx context.Context, id, ownerID string) (models.Poll, error) {
	if !auth.IsValidID(id) {
		return models.Poll{}, models.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, choices_json, created_at FROM poll WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	return scanPoll(row)
}

// ListPolls returns the owner's polls, newest first.
func (s *Store) ListPolls(ctx context.Context, ownerID string) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, choices_json, created_at FROM poll
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	return polls, nil
}

// CountPolls returns how many polls the owner has.
func (s *Store) CountPolls(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll WHERE user_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count polls: %w", err)
	}
	return n, nil
}

// UpdateChoices replaces the poll's choices and drops its cached chart.
// Votes for removed choices are kept; they still count toward the total
// but no longer show up as a choice.
func (s *Store) UpdateChoices(ctx context.Context, poll *models.Poll, choices []string) error {
	encoded, err := encodeChoices(choices)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE poll SET choices_json = $1 WHERE id = $2`, encoded, poll.ID)
	if err != nil {
		return fmt.Errorf("failed to update poll choices: %w", err)
	}
	poll.Choices = choices
	s.invalidate(ctx, poll.ID)
	return nil
}

// DeletePoll records POLL_DELETED, removes every vote and the poll itself
// in one transaction, then drops the cached chart image.
func (s *Store) DeletePoll(ctx context.Context, poll models.Poll) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := s.audit.Append(ctx, tx, poll.UserID, models.AuditEvent{
			Event:     models.EventPollDeleted,
			EventData: map[string]string{"poll_id": poll.ID},
		})
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM poll_vote WHERE poll_id = $1`, poll.ID); err != nil {
			return fmt.Errorf("failed to delete votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM poll WHERE id = $1`, poll.ID); err != nil {
			return fmt.Errorf("failed to delete poll: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("poll deleted", zap.String("poll_id", poll.ID), zap.String("user_id", poll.UserID))
	s.invalidate(ctx, poll.ID)
	return nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			zap.L().Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// invalidate drops the cached image after a committed write. The write
// already succeeded, so a cache failure is logged rather than returned.
func (s *Store) invalidate(ctx context.Context, pollID string) {
	if s.images == nil {
		return
	}
	if err := s.images.Invalidate(ctx, pollID); err != nil {
		zap.L().Error("failed to invalidate poll image",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoll(row scanner) (models.Poll, error) {
	var (
		poll    models.Poll
		choices string
	)
	err := row.Scan(&poll.ID, &poll.UserID, &choices, &poll.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Poll{}, models.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to scan poll: %w", err)
	}

	if choices != "" {
		if err := json.Unmarshal([]byte(choices), &poll.Choices); err != nil {
			return models.Poll{}, fmt.Errorf("failed to decode choices of poll %s: %w", poll.ID, err)
		}
	}
	if poll.Choices == nil {
		poll.Choices = []string{}
	}
	return poll, nil
}

func encodeChoices(choices []string) (string, error) {
	if choices == nil {
		choices = []string{}
	}
	b, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("failed to encode choices: %w", err)
	}
	return string(b), nil
}
