// SPDX-License-Identifier: AGPL-3.0-or-later

package license

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedStyle is returned when a comment style string contains the
// triplet separator but does not split into exactly three parts.
var ErrMalformedStyle = errors.New("malformed comment style")

// CommentStyle describes how license lines are wrapped into comments.
// It is either a single per-line prefix, or a triplet of a start sentinel
// line, a per-line prefix and an end sentinel line.
type CommentStyle struct {
	start   string
	prefix  string
	end     string
	triplet bool
}

// Single returns a style that only prefixes each line.
func Single(prefix string) CommentStyle {
	return CommentStyle{prefix: prefix}
}

// Triplet returns a block style such as "/*", " *", " */".
// An empty start or end means no sentinel line is emitted for it.
func Triplet(start, prefix, end string) CommentStyle {
	return CommentStyle{start: start, prefix: prefix, end: end, triplet: true}
}

// ParseCommentStyle parses "<prefix>" or "<start>|<prefix>|<end>".
func ParseCommentStyle(s string) (CommentStyle, error) {
	if !strings.Contains(s, "|") {
		return Single(s), nil
	}
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return CommentStyle{}, fmt.Errorf("%w: %q must be <comment-start>|<comment-prefix>|<comment-end>", ErrMalformedStyle, s)
	}
	return Triplet(parts[0], parts[1], parts[2]), nil
}

// Prefix returns the per-line comment prefix.
func (s CommentStyle) Prefix() string { return s.prefix }

// String renders the style back into its flag form.
func (s CommentStyle) String() string {
	if !s.triplet {
		return s.prefix
	}
	return s.start + "|" + s.prefix + "|" + s.end
}
