// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/store"
	"github.com/danielhkuo/ghpolls/testutil"
)

func newTestRouter(t *testing.T) (http.Handler, *store.Store, *miniredis.Miniredis) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h, err := NewRouter(db, rdb, testutil.GetTestConfig())
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return h, store.New(db, nil, nil), mr
}

func TestHealthEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "ghpolls API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestNewRouter_MissingSecret(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.SessionSecret = ""

	if _, err := NewRouter(testutil.SetupTestDB(t), nil, cfg); err == nil {
		t.Error("Expected error without a session secret")
	}
}

func TestRouteExistence(t *testing.T) {
	h, _, _ := newTestRouter(t)

	// Anonymous requests: 401, 404 and redirects are all valid handler responses
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/polls"},
		{"POST", "/polls"},
		{"GET", "/polls/test-id/edit"},
		{"POST", "/polls/test-id/edit"},
		{"POST", "/polls/test-id/delete"},
		{"GET", "/polls/test-id.png"},
		{"GET", "/polls/test-id"},
		{"POST", "/polls/test-id"},
		{"POST", "/polls/test-id/unvote"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	h, _, _ := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to delete endpoint", "GET", "/polls/test-id/delete", http.StatusMethodNotAllowed},
		{"GET to unvote endpoint", "GET", "/polls/test-id/unvote", http.StatusMethodNotAllowed},
		{"DELETE on poll", "DELETE", "/polls/test-id", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/nope/nope", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	h, _, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/polls"},
		{"POST", "/polls"},
		{"POST", "/polls/test-id/unvote"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for anonymous %s %s, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestImageRouteTakesPrecedence(t *testing.T) {
	h, st, mr := newTestRouter(t)
	poll := testutil.CreateTestPoll(t, st, "owner-1", "A", "B")

	req := httptest.NewRequest("GET", "/polls/"+poll.ID+".png", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d. Body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("Body is not a PNG: %v", err)
	}
	if !mr.Exists("poll-image-" + poll.ID) {
		t.Error("Expected image to be cached")
	}
}

func TestEndToEnd_CreateVoteUnvote(t *testing.T) {
	h, st, mr := newTestRouter(t)
	owner := testutil.BearerHeader(testutil.SessionToken(t, "owner-1", "owner"))
	voter := testutil.BearerHeader(testutil.SessionToken(t, "voter-1", "octocat"))

	// Create
	w := httptest.NewRecorder()
	h.ServeHTTP(w, testutil.MakeFormRequest("POST", "/polls", url.Values{"choices": {"A\nB\nA\n\nC"}}, owner))
	testutil.AssertStatus(t, w, http.StatusSeeOther)

	polls, err := st.ListPolls(t.Context(), "owner-1")
	if err != nil || len(polls) != 1 {
		t.Fatalf("Expected one poll, got %v (err %v)", polls, err)
	}
	poll := polls[0]

	// Render and cache the image
	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.MakeRequest("GET", "/polls/"+poll.ID+".png", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	// Vote drops the cached image
	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.MakeFormRequest("POST", "/polls/"+poll.ID, url.Values{"choice": {"B"}}, voter))
	testutil.AssertStatus(t, w, http.StatusSeeOther)
	if mr.Exists("poll-image-" + poll.ID) {
		t.Error("Vote should invalidate the cached image")
	}

	// Unvote
	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.MakeRequest("POST", "/polls/"+poll.ID+"/unvote", map[string]string{"choice": "B"}, voter))
	testutil.AssertStatus(t, w, http.StatusOK)

	tally, err := st.Tally(t.Context(), poll)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Total != 0 {
		t.Errorf("Expected no votes after unvote, got %d", tally.Total)
	}

	// List
	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.MakeRequest("GET", "/polls", nil, owner))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list models.ListPollsResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Polls) != 1 || list.Polls[0].Title != "A, B, C" {
		t.Errorf("Unexpected list: %+v", list)
	}
}

func TestCrossOriginAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	cfg.AllowedOrigins = []string{"https://app.polls.test"}
	h, err := NewRouter(db, nil, cfg)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	st := store.New(db, nil, nil)
	poll := testutil.CreateTestPoll(t, st, "owner-1", "A", "B")
	session := &http.Cookie{Name: "session", Value: testutil.SessionToken(t, "owner-1", "owner")}

	testCases := []struct {
		name           string
		method         string
		path           string
		origin         string
		preflight      bool
		expectedOrigin string
		expectedCreds  string
	}{
		{"foreign origin reading polls", "GET", "/polls", "https://evil.example", false, "", ""},
		{"foreign origin preflight on delete", "OPTIONS", "/polls/" + poll.ID + "/delete", "https://evil.example", true, "", ""},
		{"allowed origin reading polls", "GET", "/polls", "https://app.polls.test", false, "https://app.polls.test", "true"},
		{"allowed origin preflight on delete", "OPTIONS", "/polls/" + poll.ID + "/delete", "https://app.polls.test", true, "https://app.polls.test", "true"},
		{"any origin reading the chart", "GET", "/polls/" + poll.ID + ".png", "https://evil.example", false, "*", ""},
		{"allowed origin reading the chart", "GET", "/polls/" + poll.ID + ".png", "https://app.polls.test", false, "*", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Origin", tc.origin)
			req.AddCookie(session)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.expectedOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.expectedOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tc.expectedCreds {
				t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, tc.expectedCreds)
			}
		})
	}
}
