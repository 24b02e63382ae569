// SPDX-License-Identifier: MIT

package audit

import (
	"context"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// dangerousTriggerNames are the `on:` events known to run with elevated
// privileges against untrusted content: pull_request_target runs with
// the base repository's secrets against a PR's workflow file and code,
// and workflow_run similarly executes in the triggering repository's
// context after a (possibly attacker-influenced) prior run completes.
var dangerousTriggerNames = []string{"pull_request_target", "workflow_run"}

// DangerousTriggers flags a workflow's use of pull_request_target or
// workflow_run, which run with access to secrets and write permissions
// against code that may be attacker-controlled.
func DangerousTriggers(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	var out []finding.Finding
	for _, name := range dangerousTriggerNames {
		if !in.Workflow.On.Has(name) {
			continue
		}
		out = append(out, finding.Finding{
			AuditID:     "dangerous-triggers",
			Severity:    finding.High,
			Confidence:  finding.ConfidenceHigh,
			Description: "workflow trigger '" + name + "' runs with elevated privileges against potentially untrusted content",
			Locations: []finding.Annotation{{
				Location: in.Workflow.On.Location,
				Message:  "triggered by " + name,
			}},
			Remediation: "prefer pull_request with a separate privileged workflow_run step, or explicitly gate trusted-only code paths",
		})
	}
	return out, nil
}

// hasDangerousTrigger reports whether w's triggers include any of the
// privilege-elevating events dangerous-triggers flags; shared with
// excessive-permissions and github-env, which both escalate severity
// when paired with one of these triggers.
func hasDangerousTrigger(w *model.Workflow) bool {
	if w == nil {
		return false
	}
	for _, name := range dangerousTriggerNames {
		if w.On.Has(name) {
			return true
		}
	}
	return false
}

// ExcessivePermissions flags workflow-level permissions broader than
// needed, a missing top-level permissions block (which inherits
// whatever the repository or organization has configured as default,
// possibly read/write-all), and job-level permissions that widen the
// workflow default.
func ExcessivePermissions(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil {
		return nil, nil
	}
	w := in.Workflow
	var out []finding.Finding

	if w.Permissions.Form == model.PermissionsAbsent {
		sev := finding.Informational
		if hasDangerousTrigger(w) {
			sev = finding.Medium
		}
		out = append(out, finding.Finding{
			AuditID:     "excessive-permissions",
			Severity:    sev,
			Confidence:  finding.ConfidenceMedium,
			Description: "workflow does not declare a top-level permissions block and inherits the repository/organization default, which may grant write access",
			Locations: []finding.Annotation{{
				Location: w.Location,
				Message:  "no top-level permissions:",
			}},
			Remediation: "add an explicit permissions: block scoped to what each job actually needs",
		})
	} else if w.Permissions.IsWriteAll() {
		out = append(out, finding.Finding{
			AuditID:     "excessive-permissions",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "workflow grants write-all permissions to every job by default",
			Locations: []finding.Annotation{{
				Location: w.Permissions.Location,
				Message:  "permissions: write-all",
			}},
			Remediation: "scope permissions to the minimum set each job's steps require",
		})
	}

	for _, id := range w.JobOrder {
		job := w.Jobs[id]
		if job == nil || job.Permissions.Form == model.PermissionsAbsent {
			continue
		}
		// With no top-level permissions: block there is no declared
		// default to widen against — the "no top-level permissions"
		// finding above already covers that gap, so skip the per-job
		// widening check rather than comparing against an undeclared
		// default.
		if w.Permissions.Form == model.PermissionsAbsent {
			continue
		}
		widened := w.Permissions.WidenedScopes(job.Permissions)
		if len(widened) == 0 {
			continue
		}
		out = append(out, finding.Finding{
			AuditID:     "excessive-permissions",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "job '" + id + "' grants permissions broader than the workflow default",
			Locations: []finding.Annotation{{
				Location: job.Permissions.Location,
				Message:  "widens: " + joinScopes(widened),
			}},
			Remediation: "limit the job's permissions block to the scopes it actually needs",
		})
	}
	return out, nil
}

func joinScopes(scopes []string) string {
	out := ""
	for i, s := range scopes {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
