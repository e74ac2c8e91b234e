// SPDX-License-Identifier: AGPL-3.0-or-later

// Package header finds license headers near the top of a file and computes
// the line edits that insert, remove or flag them.
//
// All functions work on a file split into lines that keep their own
// end-of-line markers, and only ever inspect the first window lines.
package header

import (
	"strings"

	"github.com/bartekus/licensegate/internal/license"
	"github.com/bartekus/licensegate/internal/similarity"
)

// DefaultWindow is the number of top lines inspected for a header.
const DefaultWindow = 5

// fuzzySlack is how many lines beyond the expected header size a fuzzy
// candidate window may span.
const fuzzySlack = 3

// Kind classifies a match.
type Kind int

const (
	NotFound Kind = iota
	Exact
	Fuzzy
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the outcome of scanning a file for its header.
type Match struct {
	Kind  Kind
	Index int
	// Score is only set for fuzzy matches.
	Score int
}

// Found reports whether a header, exact or fuzzy, was located.
func (m Match) Found() bool { return m.Kind != NotFound }

// ShouldSkip reports whether any of the first window lines contains
// skipMarker, or, when checkCorrection is set, correctionMarker.
func ShouldSkip(lines []string, skipMarker, correctionMarker string, checkCorrection bool, window int) bool {
	for i := 0; i < window && i < len(lines); i++ {
		if strings.Contains(lines[i], skipMarker) {
			return true
		}
		if checkCorrection && strings.Contains(lines[i], correctionMarker) {
			return true
		}
	}
	return false
}

// FindExact returns the lowest start index below window at which every
// header line equals the file line once surrounding whitespace is trimmed.
func FindExact(lines []string, h *license.Header, window int) Match {
	for i := 0; i < window; i++ {
		if alignsAt(lines, h.Lines, i) {
			return Match{Kind: Exact, Index: i}
		}
	}
	return Match{}
}

func alignsAt(lines, want []string, start int) bool {
	for j, w := range want {
		if start+j >= len(lines) {
			return false
		}
		if strings.TrimSpace(w) != strings.TrimSpace(lines[start+j]) {
			return false
		}
	}
	return true
}

// FuzzyOptions configures FindFuzzy.
type FuzzyOptions struct {
	Window int
	// Cutoff is the score a candidate must strictly exceed.
	Cutoff int
	Scorer similarity.Scorer
}

// FindFuzzy scores every window start below opts.Window against the plain
// license and returns the best one strictly above the cutoff. Ties keep the
// earliest start.
func FindFuzzy(lines []string, h *license.Header, opts FuzzyOptions) Match {
	scorer := opts.Scorer
	if scorer == nil {
		scorer = similarity.Default
	}
	want := h.Plain.Joined()
	size := h.Plain.Len() + h.ExtraLines + fuzzySlack
	prefix := strings.TrimSpace(h.Style.Prefix())

	best := Match{}
	for i := 0; i < opts.Window; i++ {
		candidate := candidateText(window(lines, i, size), prefix)
		score := scorer.Score(want, candidate)
		if score > opts.Cutoff && score > best.Score {
			best = Match{Kind: Fuzzy, Index: i, Score: score}
		}
	}
	return best
}

// window returns lines[start:start+size] clamped to the file.
func window(lines []string, start, size int) []string {
	if start >= len(lines) {
		return nil
	}
	return lines[start:min(start+size, len(lines))]
}

// candidateText joins the trimmed lines of the leading comment block, each
// followed by a space. It stops at the first line not starting with prefix;
// an empty prefix accepts every line.
func candidateText(lines []string, prefix string) string {
	var b strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if prefix != "" && !strings.HasPrefix(trimmed, prefix) {
			break
		}
		b.WriteString(trimmed)
		b.WriteByte(' ')
	}
	return b.String()
}
