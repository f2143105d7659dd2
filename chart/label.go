package chart

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// LabelFormatter turns a bar's vote count into the text printed next to it.
type LabelFormatter func(count, total int) string

// VoteLabel formats a count as "3 votes (60%)". The percentage is of all
// votes cast on the poll, rounded to the nearest integer, and 0 when no
// votes have been cast.
func VoteLabel(count, total int) string {
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("%s vote%s (%s%%)", humanize.Comma(int64(count)), plural, humanize.Comma(Percent(count, total)))
}

// Percent returns count as a whole percentage of total.
func Percent(count, total int) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Round(float64(count) / float64(total) * 100))
}
