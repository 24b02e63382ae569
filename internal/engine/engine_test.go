// SPDX-License-Identifier: MIT

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestConfigDisabledAuditsNilFile(t *testing.T) {
	assert.Empty(t, configDisabledAudits(nil))
}

func TestConfigDisabledAuditsHonorsRulesEnabled(t *testing.T) {
	file := &config.File{Rules: map[string]config.RuleConfig{
		"template-injection": {Enabled: boolPtr(false)},
	}}
	disabled := configDisabledAudits(file)
	assert.Contains(t, disabled, "template-injection")
	assert.NotContains(t, disabled, "artipacked")
}

func TestConfigDisabledAuditsCanReenableDefaultDisabled(t *testing.T) {
	file := &config.File{Rules: map[string]config.RuleConfig{
		"self-hosted-runner": {Enabled: boolPtr(true)},
	}}
	disabled := configDisabledAudits(file)
	assert.NotContains(t, disabled, "self-hosted-runner")

	found := false
	for _, a := range audit.Registry {
		if a.ID == "self-hosted-runner" {
			found = true
			assert.False(t, a.DefaultEnabled)
		}
	}
	assert.True(t, found)
}
