// SPDX-License-Identifier: MIT

package uses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepositoryAction(t *testing.T) {
	r, err := Parse("actions/checkout@v4")
	require.NoError(t, err)
	assert.Equal(t, KindRepositoryAction, r.Kind)
	assert.Equal(t, "actions", r.Owner)
	assert.Equal(t, "checkout", r.Repo)
	assert.Equal(t, "v4", r.Ref)
	assert.Equal(t, "", r.SubPath)
	assert.Equal(t, "actions/checkout", r.Slug())
}

func TestParseRepositoryActionWithSubpath(t *testing.T) {
	r, err := Parse("actions/aws/ec2@8f4b7f84")
	require.NoError(t, err)
	assert.Equal(t, "ec2", r.SubPath)
}

func TestParseReusableWorkflowCall(t *testing.T) {
	r, err := Parse("octo-org/example-repo/.github/workflows/build.yml@main")
	require.NoError(t, err)
	assert.True(t, r.IsReusableWorkflowCall())
}

func TestParseLocalAction(t *testing.T) {
	r, err := Parse("./.github/actions/build")
	require.NoError(t, err)
	assert.Equal(t, KindLocalAction, r.Kind)
	assert.Equal(t, "./.github/actions/build", r.Path)
}

func TestParseDockerImage(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantImage string
		wantTag   string
	}{
		{name: "explicit_tag", raw: "docker://alpine:3.19", wantImage: "alpine", wantTag: "3.19"},
		{name: "default_tag", raw: "docker://alpine", wantImage: "alpine", wantTag: "latest"},
		{name: "registry_with_port", raw: "docker://registry.example.com:5000/tool:1.0", wantImage: "registry.example.com:5000/tool", wantTag: "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, KindDockerImage, r.Kind)
			assert.Equal(t, tt.wantImage, r.Image)
			assert.Equal(t, tt.wantTag, r.Tag)
		})
	}
}

func TestParseMissingRefIsError(t *testing.T) {
	_, err := Parse("actions/checkout")
	assert.Error(t, err)
}

func TestParseEmptyIsError(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestClassifyPin(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want PinStrength
	}{
		{name: "full_sha", ref: "8f4b7f84864484a7bf31766abe9204da3cbe65b3", want: PinHash},
		{name: "version_tag", ref: "v4", want: PinSymbolic},
		{name: "dotted_version_tag", ref: "v4.1.0", want: PinSymbolic},
		{name: "branch", ref: "main", want: PinUnpinned},
		{name: "short_sha_is_not_hash_pin", ref: "8f4b7f8", want: PinUnpinned},
		{name: "empty", ref: "", want: PinUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPin(tt.ref))
		})
	}
}
