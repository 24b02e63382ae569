// SPDX-License-Identifier: MIT

package audit

import (
	"context"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// HardcodedContainerCredentials flags a job/service container whose
// credentials.password is a literal string instead of a `${{ }}`
// reference into secrets, which puts the registry password in plain
// text in version control.
func HardcodedContainerCredentials(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	var out []finding.Finding
	for _, id := range in.Workflow.JobOrder {
		job := in.Workflow.Jobs[id]
		if job == nil {
			continue
		}
		if job.Container != nil {
			out = append(out, checkContainerCredentials(job.Container, "container")...)
		}
		for _, svcID := range job.ServiceOrder {
			svc := job.Services[svcID]
			if svc == nil {
				continue
			}
			out = append(out, checkContainerCredentials(svc, "services."+svcID)...)
		}
	}
	return out, nil
}

func checkContainerCredentials(c *model.Container, label string) []finding.Finding {
	if c.Credentials == nil || c.Credentials.Password == nil {
		return nil
	}
	pw := c.Credentials.Password
	if pw.IsExpression() {
		return nil
	}
	if pw.Value == "" {
		return nil
	}
	return []finding.Finding{{
		AuditID:     "hardcoded-container-credentials",
		Severity:    finding.High,
		Confidence:  finding.ConfidenceHigh,
		Description: label + ".credentials.password is a literal string rather than a reference to a secret",
		Locations: []finding.Annotation{{
			Location: pw.Location,
			Message:  "hardcoded registry password",
		}},
		Remediation: "reference the password via `${{ secrets.<NAME> }}` instead of a literal value",
	}}
}
