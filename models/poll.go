// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const titleMaxRunes = 50

// Title joins the choices into a short one-line description.
func (p Poll) Title() string {
	title := strings.Join(p.Choices, ", ")
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:titleMaxRunes-1])) + "…"
}

// HasChoice reports whether choice is currently offered by the poll.
func (p Poll) HasChoice(choice string) bool {
	for _, c := range p.Choices {
		if c == choice {
			return true
		}
	}
	return false
}

// URL returns the public voting page for the poll.
func (p Poll) URL(baseURL string) string {
	return fmt.Sprintf("%s/polls/%s", strings.TrimRight(baseURL, "/"), p.ID)
}

// ImageURL returns the public chart image for the poll.
func (p Poll) ImageURL(baseURL string) string {
	return p.URL(baseURL) + ".png"
}

// Markdown returns an embeddable image linking back to the voting page.
func (p Poll) Markdown(baseURL string) string {
	return fmt.Sprintf("[![poll](%s)](%s)", p.ImageURL(baseURL), p.URL(baseURL))
}
