// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package forms

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/danielhkuo/ghpolls/models"
)

// MaxInputBytes bounds a single submitted field. Anything larger is
// rejected as invalid input rather than processed.
const MaxInputBytes = 64 << 10

const (
	msgRequired = "This field is required."
	msgNotNull  = "This field can not be null."
	msgNotBlank = "This field can not be blank."
	msgInvalid  = "Invalid input."
)

// Value is the raw submission of one field.
//
// A field absent from the submission is Missing. A field present with no
// data at all (JSON null) is Null. Otherwise Raw holds the submitted text.
type Value struct {
	Raw     string
	Missing bool
	Null    bool
}

// FormValue extracts a field from parsed form data.
func FormValue(form url.Values, name string) Value {
	vals, ok := form[name]
	if !ok {
		return Value{Missing: true}
	}
	if len(vals) == 0 {
		return Value{Null: true}
	}
	return Value{Raw: vals[0]}
}

// StringValue builds a Value from a decoded JSON string pointer.
func StringValue(s *string) Value {
	if s == nil {
		return Value{Null: true}
	}
	return Value{Raw: *s}
}

// Optional lets an empty field pass validation. The zero value rejects
// null and blank submissions; use NewOptional for the permissive defaults.
type Optional struct {
	// StripWhitespace treats whitespace-only input as blank.
	StripWhitespace bool
	// Nullable accepts a field with no data at all.
	Nullable bool
	// Blank accepts a field submitted with empty text.
	Blank bool
	// Message overrides the default failure message.
	Message string
}

// NewOptional returns an Optional that strips whitespace and accepts both
// null and blank submissions.
func NewOptional() *Optional {
	return &Optional{StripWhitespace: true, Nullable: true, Blank: true}
}

// check reports whether validation should stop here, and with what error.
func (o *Optional) check(name string, v Value) (bool, error) {
	if v.Missing {
		return true, nil
	}

	msg := o.Message
	switch {
	case v.Null:
		if o.Nullable {
			return true, nil
		}
		if msg == "" {
			msg = msgNotNull
		}
	case o.isBlank(v.Raw):
		if o.Blank {
			return true, nil
		}
		if msg == "" {
			msg = msgNotBlank
		}
	default:
		return false, nil
	}
	return true, models.NewValidationError(name, msg)
}

func (o *Optional) isBlank(s string) bool {
	if o.StripWhitespace {
		s = strings.TrimSpace(s)
	}
	return s == ""
}

// ChoicesField validates multi-line poll choice input.
type ChoicesField struct {
	Name     string
	Optional *Optional // nil means the field is required
}

// Validate returns the normalized choices, one per non-empty distinct line
// in submission order. An optional field that stops early returns nil.
func (f ChoicesField) Validate(v Value) ([]string, error) {
	if f.Optional != nil {
		if stop, err := f.Optional.check(f.Name, v); stop {
			return nil, err
		}
	}

	if v.Missing || v.Null {
		return nil, models.NewValidationError(f.Name, msgRequired)
	}
	if len(v.Raw) > MaxInputBytes {
		return nil, models.NewValidationError(f.Name, msgInvalid)
	}

	choices := SplitChoices(v.Raw)
	if len(choices) == 0 {
		return nil, models.NewValidationError(f.Name, msgRequired)
	}
	return choices, nil
}

// LineField validates a single normalized line, such as the choice of a
// vote.
type LineField struct {
	Name     string
	Optional *Optional // nil means the field is required
}

// Validate returns the normalized line. An optional field that stops
// early returns "".
func (f LineField) Validate(v Value) (string, error) {
	if f.Optional != nil {
		if stop, err := f.Optional.check(f.Name, v); stop {
			return "", err
		}
	}

	if v.Missing || v.Null {
		return "", models.NewValidationError(f.Name, msgRequired)
	}
	if len(v.Raw) > MaxInputBytes {
		return "", models.NewValidationError(f.Name, msgInvalid)
	}

	line := NormalizeLine(v.Raw)
	if line == "" {
		return "", models.NewValidationError(f.Name, msgRequired)
	}
	return line, nil
}

// SplitChoices normalizes each line of raw, dropping empty lines and
// repeated lines. The first occurrence of a line wins.
func SplitChoices(raw string) []string {
	seen := make(map[string]struct{})
	var choices []string
	for _, line := range strings.Split(raw, "\n") {
		item := NormalizeLine(line)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		choices = append(choices, item)
	}
	return choices
}

// NormalizeLine strips surrounding whitespace and null bytes, collapses
// internal whitespace runs to one space, and returns valid NFC UTF-8.
func NormalizeLine(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ToValidUTF8(s, "�")
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}
