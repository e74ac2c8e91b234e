// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Licensegate - a pre-commit gate that keeps license headers at the top of source files.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package license loads a plain license text and renders it into the
// comment-wrapped header expected at the top of source files.
package license

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmpty is returned when the license source has no lines.
var ErrEmpty = errors.New("license text is empty")

// Text is the plain license, one entry per line with its end-of-line marker
// as stored in the source. It is never mutated after loading.
type Text struct {
	lines []string
}

// Load reads the license text at path.
func Load(path string) (*Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read license file: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse builds a Text from raw content.
func Parse(content string) (*Text, error) {
	lines := SplitLines(content)
	if len(lines) == 0 {
		return nil, ErrEmpty
	}
	return &Text{lines: lines}, nil
}

// Len returns the number of license lines.
func (t *Text) Len() int { return len(t.lines) }

// Joined returns the license lines joined by a single space, as compared
// against candidate header windows during fuzzy matching.
func (t *Text) Joined() string { return strings.Join(t.lines, " ") }

// SplitLines splits content after every "\n", keeping the terminator on each
// line. A final line without terminator is kept as is.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
