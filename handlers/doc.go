// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ghpolls API.

# Handler Types

  - PollHandler: list, create, edit and delete the signed-in user's polls
  - VotingHandler: vote page, voting and unvoting
  - ImageHandler: PNG bar charts of poll results

Handlers read the signed-in user from the request context (see
middleware.CurrentUser) and the poll id from the mux route variables.

# Responses

Writes answer with 303 See Other, to the poll list or back to the GitHub
page the voter came from (github_url). Unknown polls and polls owned by
someone else are both 404. Form errors are 400 with per-field messages.

Chart images are always PNG bodies: 200 for the chart, 202 with a
"try again" placeholder when the database is temporarily unavailable,
and 500 with an error placeholder otherwise.
*/
package handlers
