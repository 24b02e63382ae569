// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gha-sec/zizmor/internal/finding"
)

func boolPtr(b bool) *bool { return &b }

func TestFileEnabledDefersToDefaultWhenAbsent(t *testing.T) {
	f := &File{}
	assert.True(t, f.Enabled("template-injection", true))
	assert.False(t, f.Enabled("self-hosted-runner", false))
}

func TestFileEnabledHonorsExplicitOverride(t *testing.T) {
	f := &File{Rules: map[string]RuleConfig{
		"template-injection": {Enabled: boolPtr(false)},
		"self-hosted-runner":  {Enabled: boolPtr(true)},
	}}
	assert.False(t, f.Enabled("template-injection", true))
	assert.True(t, f.Enabled("self-hosted-runner", false))
}

func TestNilFileEnabledDefersToDefault(t *testing.T) {
	var f *File
	assert.True(t, f.Enabled("artipacked", true))
	assert.False(t, f.Enabled("artipacked", false))
}

func TestLoadRejectsInvalidSeverityOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/zizmor.yml"
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  artipacked:\n    severity-override: not-a-severity\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyDropsIgnoredFindings(t *testing.T) {
	f := &File{
		Ignore: []IgnoreRule{{PathGlob: "*.yml", AuditIDs: []string{"artipacked"}}},
	}
	findings := []finding.Finding{
		{
			AuditID:  "artipacked",
			Severity: finding.Medium,
			Locations: []finding.Annotation{{Location: finding.Location{Path: "workflow.yml"}}},
		},
		{
			AuditID:  "template-injection",
			Severity: finding.High,
			Locations: []finding.Annotation{{Location: finding.Location{Path: "workflow.yml"}}},
		},
	}
	out := f.Apply(findings)
	require.Len(t, out, 1)
	assert.Equal(t, "template-injection", out[0].AuditID)
}
