// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/models"
)

// IndexPath is where writes redirect to by default.
const IndexPath = "/polls"

func pollID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// storeError answers a failed store call. Missing and foreign polls are
// both plain 404s.
func storeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, models.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	zap.L().Error(message,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	middleware.ErrorResponse(w, http.StatusInternalServerError, message)
}

// parseForm reads a url-encoded body no larger than middleware.MaxBodyBytes.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form")
		return false
	}
	return true
}

// redirectAfterWrite sends the browser on with 303 See Other.
func redirectAfterWrite(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// isGitHubURL reports whether raw is an absolute URL on github.com.
func isGitHubURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Hostname() == "github.com"
}

// withParams returns raw with params merged into its query string.
func withParams(raw string, params url.Values) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
