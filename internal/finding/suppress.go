// SPDX-License-Identifier: MIT

package finding

import (
	"regexp"
	"strings"
)

// ignoreCommentPattern matches the inline suppression comment syntax,
// `zizmor: ignore[<audit-id>[,<audit-id>...]]`, as found trailing or
// immediately above an offending line.
var ignoreCommentPattern = regexp.MustCompile(`^zizmor:\s*ignore\[([^\]]*)\]$`)

// ParseSuppressionComment extracts the audit IDs named by a
// `zizmor: ignore[...]` comment (already stripped of its leading '#').
// Returns ok=false for any comment that doesn't match the syntax,
// including a plain unrelated comment.
func ParseSuppressionComment(comment string) (ids []string, ok bool) {
	m := ignoreCommentPattern.FindStringSubmatch(strings.TrimSpace(comment))
	if m == nil {
		return nil, false
	}
	for _, id := range strings.Split(m[1], ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, true
}

// Suppresses reports whether a suppression comment naming ids silences
// a finding with the given audit ID; a suppression with no IDs listed
// (`zizmor: ignore[]`) silences nothing, since an empty list is most
// likely a typo rather than an intentional blanket suppression.
func Suppresses(ids []string, auditID string) bool {
	for _, id := range ids {
		if id == auditID {
			return true
		}
	}
	return false
}

// ApplySuppressions returns the findings that survive, dropping those
// silenced by a `zizmor: ignore[...]` comment on the same line as (or
// immediately above) each finding's primary location.
// lineCommentAt is supplied by the caller (the loader/model layer
// knows how to recover a comment for a given line); this package stays
// independent of yaml.v3 node types.
func ApplySuppressions(findings []Finding, lineCommentAt func(path string, line int) (string, bool)) []Finding {
	var kept []Finding
	for _, f := range findings {
		loc, ok := f.Primary()
		if !ok {
			kept = append(kept, f)
			continue
		}
		comment, hasComment := lineCommentAt(loc.Path, loc.Line)
		if !hasComment {
			kept = append(kept, f)
			continue
		}
		ids, isSuppression := ParseSuppressionComment(comment)
		if !isSuppression || !Suppresses(ids, f.AuditID) {
			kept = append(kept, f)
			continue
		}
		f.Suppressed = &Suppression{Location: loc, AuditIDs: ids}
		// Suppressed findings are dropped from the kept slice entirely;
		// the Suppressed record is set only on this loop's local copy,
		// so it is not visible to the caller.
	}
	return kept
}
