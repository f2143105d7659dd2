// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielhkuo/ghpolls/models"
)

// observeLogs routes the global logger into memory for the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestWithLogging_RecordsStatus(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		expectedCode  int
		expectedLevel zapcore.Level
	}{
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			expectedCode:  http.StatusOK,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name: "redirect after write",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/polls", http.StatusSeeOther)
			},
			expectedCode:  http.StatusSeeOther,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(w, http.StatusNotFound, "Poll not found")
			},
			expectedCode:  http.StatusNotFound,
			expectedLevel: zapcore.InfoLevel,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(w, http.StatusInternalServerError, "Failed to load poll")
			},
			expectedCode:  http.StatusInternalServerError,
			expectedLevel: zapcore.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeLogs(t)

			req := httptest.NewRequest("POST", "/polls/abc", nil)
			req.RemoteAddr = "203.0.113.9:5555"
			w := httptest.NewRecorder()

			WithLogging(tt.handler)(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)

			done := logs.FilterField(zap.Int("status", tt.expectedCode)).All()
			require.Len(t, done, 1)
			assert.Equal(t, tt.expectedLevel, done[0].Level)

			fields := done[0].ContextMap()
			assert.Equal(t, "POST", fields["method"])
			assert.Equal(t, "/polls/abc", fields["path"])
			assert.Equal(t, "203.0.113.9", fields["remote"])

			assert.Equal(t, 1, logs.FilterMessage("request started").Len())
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()

	JSONResponse(w, http.StatusOK, models.EditPollResponse{PollID: "p1", Choices: "A\nB"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"poll_id":"p1","choices":"A\nB"}`, w.Body.String())
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(w, http.StatusForbidden, "You've created the maximum number of polls.")

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Forbidden", resp.Error)
	assert.Equal(t, "You've created the maximum number of polls.", resp.Message)
	assert.Nil(t, resp.Fields)
}

func TestValidationErrorResponse(t *testing.T) {
	verr := models.NewValidationError("choices", "This field is required.")
	verr.Fields["choice"] = []string{"This field can not be null.", "Invalid input."}

	w := httptest.NewRecorder()
	ValidationErrorResponse(w, verr)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid input", resp.Message)
	assert.Equal(t, map[string][]string{
		"choices": {"This field is required."},
		"choice":  {"This field can not be null.", "Invalid input."},
	}, resp.Fields)
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"choice":"Go"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.UnvoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Choice == nil || *parsed.Choice != "Go" {
			t.Errorf("Expected choice 'Go', got %v", parsed.Choice)
		}
	})

	t.Run("null field", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"choice":null}`))

		var parsed models.UnvoteRequest
		if err := ParseJSONBody(httptest.NewRecorder(), req, &parsed); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if parsed.Choice != nil {
			t.Error("Expected nil choice for null JSON")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		body := `{invalid json}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.UnvoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)

		if err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.UnvoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)

		if err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("too large", func(t *testing.T) {
		body := `{"choice":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.UnvoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)

		if err == nil || err.Error() != "request body too large" {
			t.Errorf("Expected too large error, got %v", err)
		}
	})

	t.Run("body is closed after parsing", func(t *testing.T) {
		body := `{"choice":"Go"}`
		bodyReader := io.NopCloser(bytes.NewReader([]byte(body)))
		req := httptest.NewRequest("POST", "/", bodyReader)

		var parsed models.UnvoteRequest
		_ = ParseJSONBody(httptest.NewRecorder(), req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed/closed")
		}
	})
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://app.example.com/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"polls":[]}`))
	}))

	tests := []struct {
		name           string
		method         string
		origin         string
		preflight      bool
		expectedStatus int
		expectedOrigin string
		expectedCreds  string
	}{
		{"allowed origin", "GET", "https://app.example.com", false, http.StatusOK, "https://app.example.com", "true"},
		{"foreign origin", "GET", "https://evil.example", false, http.StatusOK, "", ""},
		{"no origin", "GET", "", false, http.StatusOK, "", ""},
		{"allowed preflight", "OPTIONS", "https://app.example.com", true, http.StatusNoContent, "https://app.example.com", "true"},
		{"foreign preflight", "OPTIONS", "https://evil.example", true, http.StatusMethodNotAllowed, "", ""},
		{"origin prefix is not a match", "GET", "https://app.example.com.evil.example", false, http.StatusOK, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/polls", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCreds, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, w.Header().Values("Vary"), "Origin")

			if tt.expectedStatus == http.StatusNoContent {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
				assert.NotContains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
			}
		})
	}
}

func TestCORS_NoAllowedOrigins(t *testing.T) {
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/polls", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		expected   string
	}{
		{"first forwarded hop", "198.51.100.7, 10.0.0.1", "", "10.0.0.2:443", "198.51.100.7"},
		{"single forwarded hop with spaces", "  198.51.100.7  ", "", "10.0.0.2:443", "198.51.100.7"},
		{"empty first hop falls through", " , 10.0.0.1", "192.0.2.4", "10.0.0.2:443", "192.0.2.4"},
		{"real IP header", "", "192.0.2.4", "10.0.0.2:443", "192.0.2.4"},
		{"IPv4 remote address", "", "", "203.0.113.9:5555", "203.0.113.9"},
		{"IPv6 remote address", "", "", "[2001:db8::1]:8080", "2001:db8::1"},
		{"remote address without port", "", "", "203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}
