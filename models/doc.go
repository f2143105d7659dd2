// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Poll: an ordered list of choices owned by one user
  - PollVote: one user's vote for one choice
  - Voter: the user casting or removing a vote
  - Tally: per-request vote counts of a poll
  - AuditEvent: poll lifecycle entry in the user audit log

# Response Types

  - ListPollsResponse, PollSummary: the owner's poll list
  - VotePageResponse, ChoiceView: the vote page
  - EditPollResponse: current choices, one per line
  - ErrorResponse: error, message and field errors

# Errors

ErrNotFound is returned for unknown polls and for polls owned by someone
else. ValidationError carries field-level messages for rejected forms.
*/
package models
