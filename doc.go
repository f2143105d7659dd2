// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ghpolls API server.

ghpolls lets signed-in GitHub users create simple polls, share them in
issues and pull requests as an embedded bar-chart image, and vote for one
or more choices.

# Starting the Server

The server reads CLI flags, then environment variables (a .env file is
loaded if present):

	DATABASE_URL=polls.db SESSION_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -redis redis://localhost:6379/0

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): HMAC key for session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (-redis): chart image cache; charts render uncached without it
  - BASE_URL (-base-url): public URL used in share links
  - OAUTH_AUTHORIZE_URL: where anonymous voters are sent to sign in
  - MAX_POLLS_PER_USER, CREATE_RATE_PER_MINUTE, STATEMENT_TIMEOUT
  - CORS_ORIGINS (-cors-origins): origins allowed credentialed cross-origin access
  - LOG_LEVEL, LOG_ENCODING

# Architecture

  - handlers: HTTP request handlers (polls, voting, images)
  - router: gorilla/mux route table
  - middleware: sessions, rate limiting, CORS, logging, JSON helpers
  - store: polls, votes, tallies and the audit log
  - chart: PNG bar charts and the cached image service
  - cache: Redis image cache
  - forms: choice input validation
  - models: Request/response and domain types
  - auth: IDs and signed session tokens
  - db: Connections, schema and error classification
  - cliparse: Configuration parsing
  - logging: zap logger construction

See package documentation for each component.
*/
package main
