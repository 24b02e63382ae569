// SPDX-License-Identifier: MIT

package expr

import "strings"

// Taint classifies how trustworthy the value behind an expression path
// is, for audits like template-injection that need to decide whether a
// `${{ ... }}` expansion could carry attacker-controlled text into a
// code-reaching sink.
type Taint int

const (
	// TaintUnknown covers paths not present in any of the tables below
	// (custom step outputs with unrecognized IDs, matrix values, etc).
	TaintUnknown Taint = iota
	// TaintStatic is a context GitHub computes itself and an attacker
	// cannot influence through repository content, e.g. github.repository.
	TaintStatic
	// TaintStepOutput is a value set earlier in the same job by a step
	// or action; whether it is attacker-controlled depends on what
	// produced it, so template-injection treats it as medium confidence.
	TaintStepOutput
	// TaintAttacker is one of the fixed contexts known to carry
	// user-supplied text: issue/PR titles and bodies, commit messages,
	// review content, and similar.
	TaintAttacker
)

// attackerControllable lists expression paths (a "*" component matches
// any single component, see pathMatches) that carry text
// an outside contributor can set directly, mirroring the well-known
// GitHub Actions "untrusted input" contexts.
var attackerControllable = []string{
	"github.event.issue.title",
	"github.event.issue.body",
	"github.event.pull_request.title",
	"github.event.pull_request.body",
	"github.event.pull_request.head.ref",
	"github.event.pull_request.head.repo.full_name",
	"github.event.pull_request.head.label",
	"github.event.comment.body",
	"github.event.review.body",
	"github.event.review_comment.body",
	"github.event.discussion.title",
	"github.event.discussion.body",
	"github.event.pages.*.page_name",
	"github.event.head_commit.message",
	"github.event.head_commit.author.name",
	"github.event.head_commit.author.email",
	"github.event.commits.*.message",
	"github.event.workflow_run.head_branch",
	"github.event.workflow_run.display_title",
	"github.event.deployment.description",
	"github.event.deployment_status.description",
	"github.head_ref",
}

// staticContexts lists paths GitHub computes without regard to
// repository content; an attacker cannot change their value by editing
// an issue, PR, or commit.
var staticContexts = []string{
	"github.workflow",
	"github.run_id",
	"github.run_number",
	"github.run_attempt",
	"github.repository",
	"github.repository_owner",
	"github.repository_id",
	"github.actor",
	"github.actor_id",
	"github.sha",
	"github.ref",
	"github.ref_name",
	"github.ref_type",
	"github.base_ref",
	"github.workspace",
	"github.action",
	"github.job",
	"github.server_url",
	"runner.os",
	"runner.arch",
	"runner.name",
	"runner.temp",
	"runner.tool_cache",
}

// ClassifyPath returns the taint of a dotted expression path as
// produced by (*Node).Path. Prefix matches win: a path that starts
// with "steps." or "env." (beyond an exact static/attacker match) is
// a step output; everything else is unknown.
func ClassifyPath(path string) Taint {
	if path == "" {
		return TaintUnknown
	}
	for _, p := range attackerControllable {
		if pathMatches(p, path) {
			return TaintAttacker
		}
	}
	for _, p := range staticContexts {
		if p == path {
			return TaintStatic
		}
	}
	if strings.HasPrefix(path, "steps.") && strings.Contains(path, ".outputs.") {
		return TaintStepOutput
	}
	if strings.HasPrefix(path, "env.") {
		return TaintStepOutput
	}
	if strings.HasPrefix(path, "needs.") && strings.Contains(path, ".outputs.") {
		return TaintStepOutput
	}
	return TaintUnknown
}

// pathMatches compares a table entry that may contain "*" wildcard
// segments (matching exactly one dotted component) against a concrete
// path produced by (*Node).Path.
func pathMatches(pattern, path string) bool {
	pParts := strings.Split(pattern, ".")
	cParts := strings.Split(path, ".")
	if len(pParts) != len(cParts) {
		return false
	}
	for i, p := range pParts {
		if p == "*" {
			continue
		}
		if p != cParts[i] {
			return false
		}
	}
	return true
}

// WalkIdentifierPaths visits every Identifier/Member/Index chain in
// the tree rooted at n and calls visit with the dotted path and the
// terminal node's span. Used by audits to collect every context
// reference inside an expression without duplicating the tree walk.
func WalkIdentifierPaths(n *Node, visit func(path string, span Span)) {
	Walk(n, func(m *Node) {
		if m.Kind != Member && m.Kind != Index && m.Kind != Identifier {
			return
		}
		// Skip intermediate nodes (an Identifier or a shorter
		// Member/Index) that are really the base of a longer
		// Member/Index chain; the outermost node reports the full path.
		// A bare Identifier with no parent reference is still reported
		// once, for expressions like `${{ success }}`.
		if isChainBase(n, m) {
			return
		}
		if p := m.Path(); p != "" {
			visit(p, m.Span)
		}
	})
}

// isChainBase reports whether m serves as the base (Target) of some
// Member/Index node elsewhere in the tree rooted at root — i.e.
// reporting it separately would duplicate the longer path.
func isChainBase(root, m *Node) bool {
	isBase := false
	Walk(root, func(o *Node) {
		if (o.Kind == Member || o.Kind == Index) && o.Target == m {
			isBase = true
		}
	})
	return isBase
}
