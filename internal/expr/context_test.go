// SPDX-License-Identifier: MIT

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want Taint
	}{
		{name: "attacker_issue_title", path: "github.event.issue.title", want: TaintAttacker},
		{name: "attacker_pr_body", path: "github.event.pull_request.body", want: TaintAttacker},
		{name: "attacker_wildcard_page_name", path: "github.event.pages.0.page_name", want: TaintAttacker},
		{name: "static_repository", path: "github.repository", want: TaintStatic},
		{name: "static_runner_os", path: "runner.os", want: TaintStatic},
		{name: "step_output", path: "steps.build.outputs.version", want: TaintStepOutput},
		{name: "env_var", path: "env.DEPLOY_TARGET", want: TaintStepOutput},
		{name: "needs_output", path: "needs.build.outputs.artifact", want: TaintStepOutput},
		{name: "unknown_matrix", path: "matrix.os", want: TaintUnknown},
		{name: "empty", path: "", want: TaintUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPath(tt.path))
		})
	}
}

func TestWalkIdentifierPathsCollectsOnce(t *testing.T) {
	n, err := Parse("github.event.issue.title == github.actor")
	assert := assert.New(t)
	assert.NoError(err)

	var paths []string
	WalkIdentifierPaths(n, func(path string, _ Span) {
		paths = append(paths, path)
	})
	assert.ElementsMatch([]string{"github.event.issue.title", "github.actor"}, paths)
}

func TestWalkIdentifierPathsBareCall(t *testing.T) {
	n, err := Parse("success()")
	assert := assert.New(t)
	assert.NoError(err)

	var paths []string
	WalkIdentifierPaths(n, func(path string, _ Span) {
		paths = append(paths, path)
	})
	assert.Empty(paths)
}
