package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/danielhkuo/ghpolls/models"
)

// Tally counts the poll's votes. Every current choice appears in Counts,
// zero if nobody voted for it; Total also includes votes for choices that
// have since been removed from the poll.
//
// The result is a snapshot: compute it once per request and pass it to
// whatever needs counts.
func (s *Store) Tally(ctx context.Context, poll models.Poll) (models.Tally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT choice, COUNT(*) FROM poll_vote
		WHERE poll_id = $1
		GROUP BY choice
	`, poll.ID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	tally := models.Tally{Counts: make(map[string]int, len(poll.Choices))}
	for _, choice := range poll.Choices {
		tally.Counts[choice] = 0
	}

	for rows.Next() {
		var (
			choice string
			n      int
		)
		if err := rows.Scan(&choice, &n); err != nil {
			return models.Tally{}, fmt.Errorf("failed to scan vote count: %w", err)
		}
		tally.Total += n
		if _, ok := tally.Counts[choice]; ok {
			tally.Counts[choice] = n
		}
	}
	if err := rows.Err(); err != nil {
		return models.Tally{}, fmt.Errorf("failed to iterate vote counts: %w", err)
	}
	return tally, nil
}

// SortedChoices orders choices by vote count, most first, breaking ties
// alphabetically without regard to case. The input is not modified.
func SortedChoices(choices []string, tally models.Tally) []string {
	sorted := make([]string, len(choices))
	copy(sorted, choices)

	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := tally.Count(sorted[i]), tally.Count(sorted[j])
		if ci != cj {
			return ci > cj
		}
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return sorted
}
