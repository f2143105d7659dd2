// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides record IDs and session tokens.

# ID Generation

Random UUIDs for database records:

	id := auth.GenerateID()
	ok := auth.IsValidID(id) // true

Route parameters are checked with IsValidID so malformed IDs are treated as
not found without a database round trip.

# Sessions

Sessions are HS256 JWTs carrying the user's ID as the subject and their
GitHub login as a custom claim:

	sessions, err := auth.NewSessions(secret, 0)
	token, err := sessions.Issue(userID, "octocat")
	claims, err := sessions.Parse(token)

Tokens are minted by the GitHub OAuth flow, which lives outside this
service; this package only needs the shared secret to verify them.
*/
package auth
