// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/ghpolls/auth"
	"github.com/danielhkuo/ghpolls/cache"
	"github.com/danielhkuo/ghpolls/cliparse"
	"github.com/danielhkuo/ghpolls/db"
	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/store"
)

// TestSessionSecret signs sessions minted by SessionToken.
const TestSessionSecret = "test-session-secret"

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ghpolls.db")
	conn, err := db.Open(db.TypeSQLite, path, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// SetupTestCache starts an in-memory Redis and returns an image cache backed by it
func SetupTestCache(t *testing.T) (*cache.ImageCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return cache.NewImageCache(rdb, 0), mr
}

// SetupTestStore wires a store to a fresh database and cache
func SetupTestStore(t *testing.T) (*store.Store, *cache.ImageCache, *miniredis.Miniredis) {
	t.Helper()

	images, mr := SetupTestCache(t)
	return store.New(SetupTestDB(t), nil, images), images, mr
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                3318,
		DatabaseURL:         ":memory:",
		DatabaseType:        db.TypeSQLite,
		SessionSecret:       TestSessionSecret,
		BaseURL:             "http://polls.test",
		OAuthAuthorizeURL:   "/oauth/github/authorize",
		MaxPollsPerUser:     40,
		CreateRatePerMinute: 1000,
		StatementTimeout:    5 * time.Second,
	}
}

// SessionToken signs a session for the user with TestSessionSecret
func SessionToken(t *testing.T, userID, login string) string {
	t.Helper()

	sessions, err := auth.NewSessions(TestSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create sessions: %v", err)
	}
	token, err := sessions.Issue(userID, login)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return token
}

// CreateTestPoll creates a poll owned by ownerID
func CreateTestPoll(t *testing.T, s *store.Store, ownerID string, choices ...string) models.Poll {
	t.Helper()

	poll, err := s.CreatePoll(t.Context(), ownerID, choices)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// CastTestVote records a vote, failing the test if it was not new
func CastTestVote(t *testing.T, s *store.Store, poll models.Poll, userID, choice string) {
	t.Helper()

	created, err := s.VoteFor(t.Context(), poll, models.Voter{UserID: userID, DisplayName: userID}, choice)
	if err != nil {
		t.Fatalf("Failed to vote: %v", err)
	}
	if !created {
		t.Fatalf("Vote by %s for %q was not recorded", userID, choice)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeFormRequest creates a form-encoded HTTP test request
func MakeFormRequest(method, path string, form url.Values, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader returns an Authorization header carrying token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
