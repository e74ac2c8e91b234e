// SPDX-License-Identifier: AGPL-3.0-or-later

// Package similarity scores how alike two pieces of text are on a 0..100
// scale. It is used to recognise license headers that drifted from the
// canonical text.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Scorer scores two strings; higher means more similar.
type Scorer interface {
	Score(a, b string) int
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(a, b string) int

// Score calls f(a, b).
func (f ScorerFunc) Score(a, b string) int { return f(a, b) }

// Default is the scorer used for fuzzy header matching.
var Default Scorer = ScorerFunc(PartialTokenSetRatio)

// PartialTokenSetRatio compares the word sets of a and b. Shared words are
// sorted and joined, then compared with partial ratios against the shared
// words extended by each side's leftovers. Any shared word therefore scores
// high, while reordering and extra words do not lower the score.
func PartialTokenSetRatio(a, b string) int {
	pa, pb := normalize(a), normalize(b)
	if pa == "" || pb == "" {
		return 0
	}

	ta, tb := tokenSet(pa), tokenSet(pb)
	var sect, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			sect = append(sect, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sorted := strings.Join(sect, " ")
	combinedA := strings.TrimSpace(sorted + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sorted + " " + strings.Join(onlyB, " "))

	return max(
		PartialRatio(sorted, combinedA),
		PartialRatio(sorted, combinedB),
		PartialRatio(combinedA, combinedB),
	)
}

// PartialRatio returns the best match ratio of the shorter string against
// every same-length window of the longer one that starts at a matching block.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := chars(a), chars(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	blocks := difflib.NewMatcher(shorter, longer).GetMatchingBlocks()
	for _, block := range blocks {
		start := max(block.B-block.A, 0)
		end := min(start+len(shorter), len(longer))
		r := difflib.NewMatcher(shorter, longer[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return int(math.RoundToEven(100 * best))
}

// normalize drops non-ASCII characters, turns everything that is not a letter,
// digit or underscore into a space, lower-cases and trims.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= utf8.RuneSelf:
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// chars splits s into one element per character, the unit difflib compares.
func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
