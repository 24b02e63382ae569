// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"strings"

	"github.com/gha-sec/zizmor/internal/expr"
	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

const allowUnsecureCommandsVar = "ACTIONS_ALLOW_UNSECURE_COMMANDS"

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// InsecureCommands flags ACTIONS_ALLOW_UNSECURE_COMMANDS set to a
// truthy value in any env scope. Setting it re-enables the legacy
// `::set-env::`/`::add-path::` workflow commands, which a step's own
// stdout can forge to inject arbitrary environment variables or PATH
// entries into later steps.
func InsecureCommands(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	var out []finding.Finding
	check := func(e model.EnvMap, scope string) {
		v, ok := e.Lookup(allowUnsecureCommandsVar)
		if !ok || !isTruthy(v.Value) {
			return
		}
		out = append(out, finding.Finding{
			AuditID:     "insecure-commands",
			Severity:    finding.High,
			Confidence:  finding.ConfidenceHigh,
			Description: allowUnsecureCommandsVar + " is set to a truthy value in " + scope + ", re-enabling unsafe workflow commands",
			Locations: []finding.Annotation{{
				Location: v.Location,
				Message:  allowUnsecureCommandsVar + "=" + v.Value,
			}},
			Remediation: "remove this variable; it was a deprecated opt-in for workflow commands that allowed log-injection-based environment poisoning",
		})
	}

	if in.Workflow != nil {
		check(in.Workflow.Env, "the workflow-level env")
		for _, id := range in.Workflow.JobOrder {
			job := in.Workflow.Jobs[id]
			if job == nil {
				continue
			}
			check(job.Env, "job '"+id+"'")
			for _, step := range job.Steps {
				if step == nil {
					continue
				}
				stepLabel := "a step"
				if step.ID != nil {
					stepLabel = "step '" + step.ID.Value + "'"
				}
				check(step.Env, stepLabel)
			}
		}
	}
	if in.Action != nil && in.Action.Runs.Kind == model.RunsComposite {
		for _, step := range in.Action.Runs.Steps {
			if step == nil {
				continue
			}
			check(step.Env, "a composite step")
		}
	}
	return out, nil
}

// GitHubEnv flags steps, in workflows using a dangerous trigger, whose
// `run` script writes to the GITHUB_ENV file. Combined with
// pull_request_target or workflow_run, a step that pipes
// attacker-influenceable text into $GITHUB_ENV can set arbitrary
// environment variables read by later, more privileged steps.
func GitHubEnv(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil || !hasDangerousTrigger(in.Workflow) {
		return nil, nil
	}
	var out []finding.Finding
	for _, id := range in.Workflow.JobOrder {
		job := in.Workflow.Jobs[id]
		if job == nil {
			continue
		}
		for _, step := range job.Steps {
			if step == nil || step.Kind != model.RunStep || step.Run == nil {
				continue
			}
			if !strings.Contains(step.Run.Value, "GITHUB_ENV") {
				continue
			}
			conf := finding.ConfidenceMedium
			if writesAttackerControlledValue(step.Run.Value) {
				conf = finding.ConfidenceHigh
			}
			out = append(out, finding.Finding{
				AuditID:     "github-env",
				Severity:    finding.High,
				Confidence:  conf,
				Description: "step writes to $GITHUB_ENV in a workflow triggered by " + dangerousTriggerName(in.Workflow) + ", allowing later steps' environment to be poisoned",
				Locations: []finding.Annotation{{
					Location: step.Run.Location,
					Message:  "writes to GITHUB_ENV",
				}},
				Remediation: "avoid writing to GITHUB_ENV from data derived from the triggering event; use job outputs instead",
			})
		}
	}
	return out, nil
}

func dangerousTriggerName(w *model.Workflow) string {
	for _, name := range dangerousTriggerNames {
		if w.On.Has(name) {
			return name
		}
	}
	return "an elevated-privilege trigger"
}

func writesAttackerControlledValue(run string) bool {
	found := false
	for _, e := range expr.Scan(run) {
		if e.AST == nil {
			continue
		}
		expr.WalkIdentifierPaths(e.AST, func(path string, _ expr.Span) {
			if expr.ClassifyPath(path) == expr.TaintAttacker {
				found = true
			}
		})
	}
	return found
}
