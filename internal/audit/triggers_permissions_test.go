// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gha-sec/zizmor/internal/finding"
)

func TestExcessivePermissionsNoTopLevelBlockSkipsJobWidening(t *testing.T) {
	w := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    permissions:
      contents: write
    steps:
      - run: echo hi
`)
	findings, err := ExcessivePermissions(context.Background(), Input{Workflow: w}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "no top-level permissions:", findings[0].Locations[0].Message)
}

func TestExcessivePermissionsJobWideningAgainstDeclaredDefault(t *testing.T) {
	w := mustWorkflow(t, `
on: push
permissions:
  contents: read
jobs:
  build:
    runs-on: ubuntu-latest
    permissions:
      contents: write
    steps:
      - run: echo hi
`)
	findings, err := ExcessivePermissions(context.Background(), Input{Workflow: w}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Locations[0].Message, "widens:")
}

func TestExcessivePermissionsWriteAll(t *testing.T) {
	w := mustWorkflow(t, `
on: push
permissions: write-all
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
`)
	findings, err := ExcessivePermissions(context.Background(), Input{Workflow: w}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, finding.ConfidenceHigh, findings[0].Confidence)
}
