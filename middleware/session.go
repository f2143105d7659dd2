// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/models"
)

// SessionCookie is the cookie holding the session token.
const SessionCookie = "session"

type userKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user models.Voter) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(ctx context.Context) (models.Voter, bool) {
	user, ok := ctx.Value(userKey{}).(models.Voter)
	return user, ok
}

// WithSession resolves the session cookie or bearer token into the
// request context. Requests without a valid session pass through
// anonymously.
func WithSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.Parse(token)
			if err != nil {
				zap.L().Debug("ignoring invalid session", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			user := models.Voter{UserID: claims.Subject, DisplayName: claims.GitHubLogin}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests with 401
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Sign in required")
			return
		}
		next(w, r)
	}
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
