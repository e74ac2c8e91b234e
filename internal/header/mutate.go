// SPDX-License-Identifier: AGPL-3.0-or-later

package header

import (
	"strings"

	"github.com/bartekus/licensegate/internal/license"
)

// PreambleLen counts the leading shebang, coding declaration and blank lines
// that a header must be inserted after.
func PreambleLen(lines []string) int {
	n := 0
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if !strings.HasPrefix(s, "#!") && !strings.HasPrefix(s, "# -*- coding") && s != "" {
			break
		}
		n++
	}
	return n
}

// Insert returns lines with the header and one blank line spliced in after
// the preamble.
func Insert(lines []string, h *license.Header) []string {
	at := PreambleLen(lines)
	out := make([]string, 0, len(lines)+h.Len()+1)
	out = append(out, lines[:at]...)
	out = append(out, h.Lines...)
	out = append(out, h.EOL)
	return append(out, lines[at:]...)
}

// Remove returns lines without the n header lines starting at index. A blank
// line directly after the header is removed as well.
func Remove(lines []string, index, n int) []string {
	end := min(index+n, len(lines))
	if end < len(lines) && strings.TrimSpace(lines[end]) == "" {
		end++
	}
	out := make([]string, 0, len(lines)-(end-index))
	out = append(out, lines[:index]...)
	return append(out, lines[end:]...)
}

// Annotate returns lines with the correction marker, wrapped by the header's
// comment prefix, inserted right before index.
func Annotate(lines []string, index int, h *license.Header, marker string) []string {
	index = min(index, len(lines))
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:index]...)
	out = append(out, h.CorrectionLine(marker))
	return append(out, lines[index:]...)
}
