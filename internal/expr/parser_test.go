// SPDX-License-Identifier: MIT

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaths(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "identifier", src: "success", want: "success"},
		{name: "member_chain", src: "github.event.issue.title", want: "github.event.issue.title"},
		{name: "index_literal", src: "steps['build'].outputs.version", want: "steps.build.outputs.version"},
		{name: "index_computed_breaks_chain", src: "steps[matrix.id].outputs.version", want: "steps.*.outputs.version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Path())
		})
	}
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "equality", src: "github.ref == 'refs/heads/main'"},
		{name: "inequality", src: "github.event_name != 'pull_request'"},
		{name: "and_or", src: "github.event_name == 'push' && github.ref == 'refs/heads/main' || always()"},
		{name: "negation", src: "!cancelled()"},
		{name: "ternary", src: "github.event_name == 'pull_request' && 'pr' || 'push'"},
		{name: "relational", src: "matrix.attempt < 3"},
		{name: "call_with_args", src: "contains(github.event.pull_request.labels.*.name, 'safe-to-test')"},
		{name: "array_literal", src: "['a', 'b', 'c']"},
		{name: "parenthesized", src: "(github.ref == 'refs/heads/main')"},
		{name: "quoted_string_with_escape", src: "format('it''s {0}', github.actor)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.NoError(t, err)
		})
	}
}

func TestParseMalformedNeverPanics(t *testing.T) {
	tests := []string{
		"",
		"(",
		"github.",
		"steps[",
		"'unterminated",
		"1 +",
		"& &",
		"a == ",
		"f(a, )",
		")))",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, _ = Parse(src)
			})
		})
	}
}

func TestParseSpansAreRelativeToInput(t *testing.T) {
	n, err := Parse("github.event.issue.title")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 0, n.Span.Start)
	assert.Equal(t, len("github.event.issue.title"), n.Span.End)
}
