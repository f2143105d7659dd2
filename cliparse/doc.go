// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type (sqlite or postgres)
	-redis           Redis URL
	-base-url        Public URL polls are shared under
	-session-secret  Session signing secret

# Environment Variables

Flags fall back to environment variables, then to defaults:

	PORT                    → -p (default 3318)
	DATABASE_URL            → -d (required)
	DATABASE_TYPE           → -t (default sqlite)
	REDIS_URL               → -redis (default redis://localhost:6379/0)
	BASE_URL                → -base-url (default http://localhost:3318)
	SESSION_SECRET          → -session-secret (required)
	OAUTH_AUTHORIZE_URL     default /oauth/github/authorize
	MAX_POLLS_PER_USER      default 40
	CREATE_RATE_PER_MINUTE  default 10
	STATEMENT_TIMEOUT       default 5s
	LOG_LEVEL               debug, info, warn or error (default info)
	LOG_ENCODING            json or console (default json)

CLI flags take precedence over environment variables. A .env file in the
working directory is loaded by main before parsing.

# Validation

Required values are checked first with plain errors; the assembled Config
is then validated with go-playground/validator struct tags.
*/
package cliparse
