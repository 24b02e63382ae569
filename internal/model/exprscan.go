// SPDX-License-Identifier: MIT

package model

import "strings"

// containsExpr is a cheap pre-filter so audits don't invoke the full
// internal/expr lexer on every scalar in the tree, only the ones that
// could plausibly contain a `${{ ... }}` expansion.
func containsExpr(s string) bool {
	return strings.Contains(s, "${{")
}
