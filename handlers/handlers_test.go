// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/testutil"
)

var (
	owner = models.Voter{UserID: "owner-1", DisplayName: "owner"}
	voter = models.Voter{UserID: "voter-1", DisplayName: "octocat"}
)

// asUser attaches user and route variables the way the router would.
func asUser(r *http.Request, user *models.Voter, id string) *http.Request {
	if user != nil {
		r = r.WithContext(middleware.WithUser(r.Context(), *user))
	}
	if id != "" {
		r = mux.SetURLVars(r, map[string]string{"id": id})
	}
	return r
}

func formRequest(method, path string, form url.Values) *http.Request {
	return testutil.MakeFormRequest(method, path, form, nil)
}

// queryOf parses the query string of a Location header.
func queryOf(t *testing.T, location string) url.Values {
	t.Helper()
	u, err := url.Parse(location)
	if err != nil {
		t.Fatalf("bad Location %q: %v", location, err)
	}
	return u.Query()
}

func pathOf(location string) string {
	path, _, _ := strings.Cut(location, "?")
	return path
}
