// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if !IsValidID(id) {
		t.Errorf("GenerateID() = %q, not a valid ID", id)
	}

	// Test randomness - two IDs should be different
	if GenerateID() == GenerateID() {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"uuid", "3f2504e0-4f89-41d3-9a0c-0305e82c3301", true},
		{"empty", "", false},
		{"garbage", "not-an-id", false},
		{"braced", "{3f2504e0-4f89-41d3-9a0c-0305e82c3301}", false},
		{"urn", "urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301", false},
		{"no dashes", "3f2504e04f8941d39a0c0305e82c3301", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestNewSessions_EmptySecret(t *testing.T) {
	if _, err := NewSessions("", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("NewSessions(\"\") error = %v, want ErrMissingSecret", err)
	}
}

func TestSessions_RoundTrip(t *testing.T) {
	s, err := NewSessions("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions() error = %v", err)
	}

	token, err := s.Issue("user-1", "octocat")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.GitHubLogin != "octocat" {
		t.Errorf("GitHubLogin = %q, want octocat", claims.GitHubLogin)
	}
}

func TestSessions_Parse_Rejects(t *testing.T) {
	s, _ := NewSessions("secret", time.Hour)
	other, _ := NewSessions("other-secret", time.Hour)

	expired, _ := NewSessions("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _ := expired.Issue("user-1", "octocat")

	foreignToken, _ := other.Issue("user-1", "octocat")

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := s.Issue("", "octocat")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", foreignToken},
		{"expired", expiredToken},
		{"alg none", noneToken},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Parse(tt.token)
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Parse() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}
