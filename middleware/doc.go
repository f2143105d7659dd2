// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	r.HandleFunc("/health", middleware.WithLogging(handler))

Logs completion (method, path, status, duration_ms, remote) through the
global zap logger. 5xx responses are logged at warn level.

# Sessions

WithSession resolves the "session" cookie or an Authorization bearer token
into the request context; RequireUser turns anonymous requests away with 401:

	handler = middleware.WithSession(sessions)(handler)
	r.HandleFunc("/polls", middleware.RequireUser(h.ListPolls))

	user, ok := middleware.CurrentUser(r.Context())

# Rate Limiting

RateLimiter keeps one token bucket per user (per client IP when anonymous):

	limiter := middleware.NewRateLimiter(cfg.CreateRatePerMinute)
	r.HandleFunc("/polls", limiter.Limit(h.CreatePoll)).Methods("POST")

# CORS Middleware

Grant credentialed cross-origin access to an allow-list of origins. Other
origins get no CORS headers at all:

	handler := middleware.CORS([]string{"https://app.example.com"})(r)

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationErrorResponse(w, verr)

Parse JSON request bodies, capped at MaxBodyBytes:

	var req models.UnvoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used to key rate limits for anonymous requests.
*/
package middleware
