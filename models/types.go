package models

import "time"

// Audit log event names
const (
	EventPollCreated = "POLL_CREATED"
	EventPollDeleted = "POLL_DELETED"
)

// Chart limits
const (
	MaxChartChoices = 20
)

// Request types

type UnvoteRequest struct {
	Choice *string `json:"choice"`
}

// Response types

type EditPollResponse struct {
	PollID  string `json:"poll_id"`
	Choices string `json:"choices"`
}

type PollSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Choices     []string   `json:"choices"`
	NumVotes    int        `json:"num_votes"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url"`
	Markdown    string     `json:"markdown"`
	LastVotedAt *time.Time `json:"last_voted_at,omitempty"`
	LastVoted   string     `json:"last_voted,omitempty"` // "3 minutes ago"
	CreatedAt   time.Time  `json:"created_at"`
}

type ListPollsResponse struct {
	Polls []PollSummary `json:"polls"`
}

type ChoiceView struct {
	Choice string `json:"choice"`
	Votes  int    `json:"votes"`
	Voted  bool   `json:"voted"`
}

type VotePageResponse struct {
	PollID    string       `json:"poll_id"`
	Title     string       `json:"title"`
	Choices   []ChoiceView `json:"choices"`
	NumVotes  int          `json:"num_votes"`
	ImageURL  string       `json:"image_url"`
	Markdown  string       `json:"markdown"`
	GitHubURL string       `json:"github_url,omitempty"`
	History   []PollVote   `json:"history"`
}

// Domain types

type Poll struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Choices   []string  `json:"choices"`
	CreatedAt time.Time `json:"created_at"`
}

type PollVote struct {
	ID               string    `json:"-"`
	PollID           string    `json:"-"`
	UserID           string    `json:"-"` // Never expose in JSON
	Choice           string    `json:"choice"`
	VoterDisplayName string    `json:"github_username"`
	CreatedAt        time.Time `json:"created_at"`
}

// Voter identifies the user casting or removing a vote.
type Voter struct {
	UserID      string
	DisplayName string
}

// Tally holds the vote counts of one poll. It is computed once per request
// and passed to whatever needs counts; it is never cached across requests.
type Tally struct {
	// Counts maps every current choice to its vote count.
	Counts map[string]int
	// Total counts every vote row of the poll, including votes for
	// choices that were later removed from the poll.
	Total int
}

// Count returns the number of votes for choice, zero if unknown.
func (t Tally) Count(choice string) int {
	return t.Counts[choice]
}

type AuditEvent struct {
	Event     string            `json:"event"`
	EventData map[string]string `json:"event_data"`
}

// Error response

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}
