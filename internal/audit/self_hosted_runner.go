// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"strings"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// SelfHostedRunner flags jobs whose runs-on includes the self-hosted
// label, or names a runner group other than github-hosted. It does not
// look for trusted-label guards: every such job is flagged. It
// is pedantic-only: self-hosted runners are routine in many
// organizations, so flagging every one by default would be noisy, but
// reviewing their exposure to untrusted triggers is still worthwhile.
func SelfHostedRunner(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	var out []finding.Finding
	for _, id := range in.Workflow.JobOrder {
		job := in.Workflow.Jobs[id]
		if job == nil || job.Kind != model.NormalJob {
			continue
		}
		if !jobTargetsSelfHosted(job.RunsOn) {
			continue
		}
		out = append(out, finding.Finding{
			AuditID:     "self-hosted-runner",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceLow,
			Description: "job '" + id + "' runs on a self-hosted runner without a visible trusted-label guard",
			Locations: []finding.Annotation{{
				Location: job.RunsOn.Location,
				Message:  "self-hosted runner",
			}},
			Remediation: "confirm this runner label is not reachable from forked-repository pull requests, or restrict the workflow's triggers",
		})
	}
	return out, nil
}

func jobTargetsSelfHosted(r model.RunsOn) bool {
	if r.Form == model.RunsOnGroup {
		return r.Group != "" && !strings.EqualFold(r.Group, "github-hosted")
	}
	return r.HasLabel("self-hosted")
}
