// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/db"
	"github.com/danielhkuo/ghpolls/models"
)

// VoteFor records voter's vote for choice. Choices the poll doesn't offer
// are ignored. Voting twice for the same choice is a no-op, including when
// two requests race: the UNIQUE (user_id, poll_id, choice) constraint
// decides, and the loser sees no error. Reports whether a vote was added.
func (s *Store) VoteFor(ctx context.Context, poll models.Poll, voter models.Voter, choice string) (bool, error) {
	if !poll.HasChoice(choice) {
		return false, nil
	}

	var created bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO poll_vote (id, poll_id, user_id, choice, voter_display_name, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, poll_id, choice) DO NOTHING
		`, auth.GenerateID(), poll.ID, voter.UserID, choice, voter.DisplayName, s.now())
		if db.IsUniqueViolation(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read inserted rows: %w", err)
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		zap.L().Debug("vote recorded", zap.String("poll_id", poll.ID), zap.String("user_id", voter.UserID))
		s.invalidate(ctx, poll.ID)
	}
	return created, nil
}

// RemoveVoteFor deletes the user's vote for choice if there is one.
// Reports whether a vote was removed.
func (s *Store) RemoveVoteFor(ctx context.Context, poll models.Poll, userID, choice string) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM poll_vote WHERE poll_id = $1 AND user_id = $2 AND choice = $3
		`, poll.ID, userID, choice)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read deleted rows: %w", err)
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		zap.L().Debug("vote removed", zap.String("poll_id", poll.ID), zap.String("user_id", userID))
		s.invalidate(ctx, poll.ID)
	}
	return removed, nil
}

// HasVoted reports whether the user voted for choice.
func (s *Store) HasVoted(ctx context.Context, poll models.Poll, userID, choice string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM poll_vote
			WHERE poll_id = $1 AND user_id = $2 AND choice = $3
		)
	`, poll.ID, userID, choice).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return exists, nil
}

// VotedChoices returns the set of choices the user voted for.
func (s *Store) VotedChoices(ctx context.Context, poll models.Poll, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT choice FROM poll_vote WHERE poll_id = $1 AND user_id = $2
	`, poll.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user votes: %w", err)
	}
	defer rows.Close()

	voted := make(map[string]bool)
	for rows.Next() {
		var choice string
		if err := rows.Scan(&choice); err != nil {
			return nil, fmt.Errorf("failed to scan user vote: %w", err)
		}
		voted[choice] = true
	}
	return voted, rows.Err()
}

// LastVotedAt returns when the most recent vote was cast, or nil.
func (s *Store) LastVotedAt(ctx context.Context, poll models.Poll) (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at FROM poll_vote WHERE poll_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, poll.ID).Scan(&at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last vote: %w", err)
	}
	return &at, nil
}

// VoteHistory returns up to limit votes, newest first. A limit of zero or
// less returns every vote.
func (s *Store) VoteHistory(ctx context.Context, poll models.Poll, limit int) ([]models.PollVote, error) {
	query := `
		SELECT id, poll_id, user_id, choice, voter_display_name, created_at
		FROM poll_vote WHERE poll_id = $1
		ORDER BY created_at DESC`
	args := []any{poll.ID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote history: %w", err)
	}
	defer rows.Close()

	votes := []models.PollVote{}
	for rows.Next() {
		var v models.PollVote
		if err := rows.Scan(&v.ID, &v.PollID, &v.UserID, &v.Choice, &v.VoterDisplayName, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}
