// SPDX-License-Identifier: MIT

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gha-sec/zizmor/internal/loader"
)

func load(t *testing.T, yamlText string) *loader.Document {
	t.Helper()
	doc, err := loader.Load("workflow.yml", []byte(yamlText))
	require.NoError(t, err)
	return doc
}

func TestDecodeWorkflowBasic(t *testing.T) {
	doc := load(t, `
name: CI
on: push
permissions:
  contents: read
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: echo hi
`)
	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)
	require.NotNil(t, wf)

	assert.True(t, wf.On.Has("push"))
	assert.False(t, wf.On.Has("pull_request_target"))
	assert.False(t, wf.Permissions.IsWriteAll())

	job, ok := wf.Jobs["build"]
	require.True(t, ok)
	require.Len(t, job.Steps, 2)
	assert.Equal(t, UsesStep, job.Steps[0].Kind)
	assert.Equal(t, "actions/checkout@v4", job.Steps[0].Uses.Value)
	assert.Equal(t, RunStep, job.Steps[1].Kind)
}

func TestDecodeWorkflowDangerousTrigger(t *testing.T) {
	doc := load(t, `
on: pull_request_target
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
`)
	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)
	assert.True(t, wf.On.Has("pull_request_target"))
}

func TestDecodeWorkflowWriteAllPermissions(t *testing.T) {
	doc := load(t, `
on: push
permissions: write-all
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
`)
	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)
	assert.True(t, wf.Permissions.IsWriteAll())
}

func TestDecodeWorkflowDuplicateKeyRejected(t *testing.T) {
	src := `
on: push
on: pull_request
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
`
	_, err := loader.Load("dup.yml", []byte(src))
	require.Error(t, err)
}

func TestDecodeWorkflowContainerCredentials(t *testing.T) {
	doc := load(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    container:
      image: example.com/img
      credentials:
        username: me
        password: hackme
    steps:
      - run: echo hi
`)
	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)
	job := wf.Jobs["build"]
	require.NotNil(t, job.Container)
	require.NotNil(t, job.Container.Credentials.Password)
	assert.Equal(t, "hackme", job.Container.Credentials.Password.Value)
	assert.False(t, job.Container.Credentials.Password.IsExpression())
}

func TestDecodeActionComposite(t *testing.T) {
	doc := load(t, `
name: my-action
description: does a thing
runs:
  using: composite
  steps:
    - uses: actions/checkout@v4
    - run: echo hi
      shell: bash
`)
	act, err := DecodeAction(doc)
	require.NoError(t, err)
	require.NotNil(t, act)
	assert.Equal(t, RunsComposite, act.Runs.Kind)
	require.Len(t, act.Runs.Steps, 2)
}

func TestDecodeEmptyDocument(t *testing.T) {
	doc := load(t, "")
	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)
	assert.Nil(t, wf)
}
