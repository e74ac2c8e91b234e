// SPDX-License-Identifier: AGPL-3.0-or-later

package license

import "strings"

const (
	crlf = "\r\n"
	lf   = "\n"
)

// Header is a license rendered for one comment style. It is computed once
// per run and shared read-only by every file worker.
type Header struct {
	// Lines is the comment-wrapped license, each line terminated by EOL.
	Lines []string
	// EOL is inferred from the first license line and used for every line
	// this tool synthesizes.
	EOL string
	// ExtraLines counts lines not taken from the plain text: sentinels and
	// an end-of-line appended to the final license line.
	ExtraLines int

	Style CommentStyle
	Plain *Text
}

// Prefix renders text with style.
//
// A non-blank line becomes prefix + " " + line, a blank line becomes
// prefix + line. Sentinels, when set, are added as their own lines.
func Prefix(text *Text, style CommentStyle) *Header {
	lines := make([]string, 0, text.Len()+2)
	for _, line := range text.lines {
		sep := ""
		if strings.TrimSpace(line) != "" {
			sep = " "
		}
		lines = append(lines, style.prefix+sep+line)
	}

	eol := lf
	if strings.HasSuffix(lines[0], crlf) {
		eol = crlf
	}

	extra := 0
	if last := len(lines) - 1; !strings.HasSuffix(lines[last], eol) {
		lines[last] += eol
		extra++
	}
	if style.start != "" {
		lines = append([]string{style.start + eol}, lines...)
		extra++
	}
	if style.end != "" {
		lines = append(lines, style.end+eol)
		extra++
	}

	return &Header{
		Lines:      lines,
		EOL:        eol,
		ExtraLines: extra,
		Style:      style,
		Plain:      text,
	}
}

// Len returns the number of rendered header lines.
func (h *Header) Len() int { return len(h.Lines) }

// CorrectionLine wraps marker with the comment prefix.
func (h *Header) CorrectionLine(marker string) string {
	return h.Style.prefix + marker + h.EOL
}
