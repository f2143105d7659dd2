// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ghpolls API.

# Route Registration

NewRouter builds a gorilla/mux router with all endpoints, wrapped in the
session and CORS middleware:

	h, err := router.NewRouter(db, rdb, cfg)

rdb may be nil; chart images are then rendered on every request.

Only origins listed in cfg.AllowedOrigins (CORS_ORIGINS) get credentialed
cross-origin access. The chart image is readable from any origin.

# Endpoints

Health:

	GET /health

Poll management (signed-in owner):

	GET  /polls             - List own polls
	POST /polls             - Create poll (rate limited)
	GET  /polls/{id}/edit   - Current choices
	POST /polls/{id}/edit   - Replace choices
	POST /polls/{id}/delete - Delete poll and its votes

Voting:

	GET  /polls/{id}        - Vote page (redirects anonymous users to sign in)
	POST /polls/{id}        - Cast a vote
	POST /polls/{id}/unvote - Remove a vote

Chart (public):

	GET /polls/{id}.png     - Bar chart, ?refresh=true to re-render

The .png route is registered before /polls/{id}.
*/
package router
