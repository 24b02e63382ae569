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

const checkoutActionSlug = "actions/checkout"

// Artipacked flags actions/checkout steps that leave the default
// persist-credentials: true in place. A persisted git credential in
// the workspace is picked up by anything that later archives the
// checkout (actions/upload-artifact, a build that tars up .git, …),
// leaking a token scoped to the repository into whatever consumes that
// artifact.
func Artipacked(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	var out []finding.Finding
	for _, id := range in.Workflow.JobOrder {
		job := in.Workflow.Jobs[id]
		if job == nil {
			continue
		}
		hasUpload := jobUsesUploadArtifact(job)
		for _, step := range job.Steps {
			if step.Kind != model.UsesStep || step.Uses == nil {
				continue
			}
			ref, err := uses.Parse(step.Uses.Value)
			if err != nil || ref.Kind != uses.KindRepositoryAction || ref.Slug() != checkoutActionSlug {
				continue
			}
			if checkoutDisablesCredentialPersistence(step) {
				continue
			}
			conf := finding.ConfidenceLow
			if hasUpload {
				conf = finding.ConfidenceMedium
			}
			out = append(out, finding.Finding{
				AuditID:     "artipacked",
				Severity:    finding.Medium,
				Confidence:  conf,
				Description: "actions/checkout leaves persist-credentials at its default of true, risking credential leakage if the workspace is later archived",
				Locations: []finding.Annotation{{
					Location: step.Location,
					Message:  "checkout step does not set persist-credentials: false",
				}},
				Remediation: "set `with: { persist-credentials: false }` unless the job genuinely needs git to push using the runner's token",
			})
		}
	}
	return out, nil
}

func checkoutDisablesCredentialPersistence(step *model.Step) bool {
	v, ok := step.With["persist-credentials"]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(v.Value), "false")
}

func jobUsesUploadArtifact(job *model.Job) bool {
	for _, step := range job.Steps {
		if step.Kind != model.UsesStep || step.Uses == nil {
			continue
		}
		ref, err := uses.Parse(step.Uses.Value)
		if err != nil || ref.Kind != uses.KindRepositoryAction {
			continue
		}
		if ref.Owner == "actions" && ref.Repo == "upload-artifact" {
			return true
		}
	}
	return false
}
