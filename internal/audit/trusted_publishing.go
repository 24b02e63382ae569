// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"strings"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
	"github.com/gha-sec/zizmor/internal/uses"
)

// tokenPublishActions maps a publish action slug to the `with:` input
// keys it reads an explicit token from and the advice text describing
// the tokenless OIDC "trusted publishing" alternative.
var tokenPublishActions = map[string]struct {
	tokenKeys []string
	advice    string
}{
	"pypa/gh-action-pypi-publish": {
		tokenKeys: []string{"password"},
		advice:    "PyPI supports trusted publishing via OIDC; omit `password`/`user` and configure a trusted publisher instead",
	},
	"rubygems/release-gem": {
		tokenKeys: []string{"api-key", "rubygems-api-key"},
		advice:    "RubyGems supports trusted publishing via OIDC; omit the api key input and configure a trusted publisher instead",
	},
}

// UseTrustedPublishing recommends the tokenless OIDC publishing flow
// for packaging actions that still pass an explicit API token/password
// through `with:`, where the target registry supports it. A token
// passed through `env:` is not examined.
func UseTrustedPublishing(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	var out []finding.Finding
	for _, id := range in.Workflow.JobOrder {
		job := in.Workflow.Jobs[id]
		if job == nil {
			continue
		}
		for _, step := range job.Steps {
			if step.Kind != model.UsesStep || step.Uses == nil {
				continue
			}
			ref, err := uses.Parse(step.Uses.Value)
			if err != nil || ref.Kind != uses.KindRepositoryAction {
				continue
			}
			entry, ok := tokenPublishActions[ref.Slug()]
			if !ok {
				continue
			}
			for _, key := range entry.tokenKeys {
				v, present := step.With[strings.ToLower(key)]
				if !present || v.Value == "" {
					continue
				}
				out = append(out, finding.Finding{
					AuditID:     "use-trusted-publishing",
					Severity:    finding.Informational,
					Confidence:  finding.ConfidenceMedium,
					Description: ref.Slug() + " is configured with an explicit token where a tokenless publisher is available",
					Locations: []finding.Annotation{{
						Location: step.Location,
						Message:  "with." + key + " set",
					}},
					Remediation: entry.advice,
				})
			}
		}
	}
	return out, nil
}
