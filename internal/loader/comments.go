// SPDX-License-Identifier: MIT

package loader

import "strings"

// CommentOnLine returns the text of a `#...` comment appearing on the
// given 1-based line, with the leading '#' and surrounding whitespace
// stripped. It scans the raw bytes directly rather than relying on
// yaml.v3's node-attached HeadComment/LineComment, since a
// suppression comment can trail any token on the line, not just ones
// yaml.v3 happens to attach comments to.
func (d *Document) CommentOnLine(line int) (string, bool) {
	if line < 1 || line >= len(d.lineStart) {
		return "", false
	}
	start := d.lineStart[line]
	end := len(d.Raw)
	if line+1 < len(d.lineStart) {
		end = d.lineStart[line+1]
	}
	text := string(d.Raw[start:end])

	idx := unquotedHashIndex(text)
	if idx < 0 {
		return "", false
	}
	comment := strings.TrimSpace(text[idx+1:])
	if comment == "" {
		return "", false
	}
	return comment, true
}

// unquotedHashIndex finds the first '#' not enclosed in a single- or
// double-quoted string, or -1 if none exists.
func unquotedHashIndex(s string) int {
	var inSingle, inDouble bool
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return i
			}
		}
	}
	return -1
}

// CommentFor returns the suppression-relevant comment for a 1-based
// line: either a comment on that line, or, failing that, any comment
// on the line immediately above (standalone or trailing another token).
func (d *Document) CommentFor(line int) (string, bool) {
	if c, ok := d.CommentOnLine(line); ok {
		return c, true
	}
	if line > 1 {
		return d.CommentOnLine(line - 1)
	}
	return "", false
}
