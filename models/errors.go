// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both unknown polls and polls owned by someone else.
	ErrNotFound = errors.New("poll not found")

	// ErrTransientStore marks storage failures that are expected to clear
	// on their own (statement timeout, cancelled query, dropped connection).
	ErrTransientStore = errors.New("storage temporarily unavailable")
)

// ValidationError carries field-level messages for a rejected submission.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError with a single message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
