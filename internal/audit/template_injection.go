// SPDX-License-Identifier: MIT

package audit

import (
	"context"

	"github.com/gha-sec/zizmor/internal/expr"
	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// TemplateInjection scans every code-reaching sink (run steps, `with`
// inputs, and env values) for `${{ }}` expressions that reference an
// attacker-controllable context. Those expansions happen before the
// shell (or action) ever runs, splicing arbitrary attacker text
// directly into a script or argument list.
func TemplateInjection(_ context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	var out []finding.Finding
	sinks := collectSinks(in)
	for _, s := range sinks {
		out = append(out, scanSinkForInjection(s)...)
	}
	return out, nil
}

// sink is one scalar string the runtime expands template expressions
// in before handing the result to a shell, action input, or env var.
type sink struct {
	Value    string
	Location finding.Location
	// IsShell marks a `run:` string, where a bare `${{ env.X }}`
	// splice is also worth flagging even when X isn't attacker data,
	// since a shell-quoting mistake in the substituted text is a
	// structural risk regardless of the value's origin.
	// scanSinkForInjection does not read it: env.* paths are flagged at
	// medium confidence in every sink, not only in `run:`.
	IsShell bool
}

func collectSinks(in Input) []sink {
	var out []sink
	addScalar := func(s *model.Scalar, isShell bool) {
		if s == nil || !s.IsExpression() {
			return
		}
		out = append(out, sink{Value: s.Value, Location: s.Location, IsShell: isShell})
	}
	addStringNode := func(s *model.StringNode, isShell bool) {
		if s == nil || !containsExprString(s.Value) {
			return
		}
		out = append(out, sink{Value: s.Value, Location: s.Location, IsShell: isShell})
	}
	addEnv := func(e model.EnvMap) {
		for _, k := range e.Order {
			v, ok := e.Entries[k]
			if !ok || !v.IsExpression() {
				continue
			}
			out = append(out, sink{Value: v.Value, Location: v.Location})
		}
	}

	if in.Workflow != nil {
		addEnv(in.Workflow.Env)
		for _, id := range in.Workflow.JobOrder {
			job := in.Workflow.Jobs[id]
			if job == nil {
				continue
			}
			addEnv(job.Env)
			for _, v := range job.With {
				vv := v
				addScalar(&vv, false)
			}
			for _, step := range job.Steps {
				addSinksFromStep(step, addStringNode, addScalar, addEnv)
			}
		}
	}
	if in.Action != nil && in.Action.Runs.Kind == model.RunsComposite {
		for _, step := range in.Action.Runs.Steps {
			addSinksFromStep(step, addStringNode, addScalar, addEnv)
		}
	}
	return out
}

func addSinksFromStep(
	step *model.Step,
	addStringNode func(*model.StringNode, bool),
	addScalar func(*model.Scalar, bool),
	addEnv func(model.EnvMap),
) {
	if step == nil {
		return
	}
	addEnv(step.Env)
	if step.Kind == model.RunStep {
		addStringNode(step.Run, true)
	}
	for _, v := range step.With {
		vv := v
		addScalar(&vv, false)
	}
}

func containsExprString(s string) bool {
	return len(expr.Scan(s)) > 0
}

func scanSinkForInjection(s sink) []finding.Finding {
	var out []finding.Finding
	for _, e := range expr.Scan(s.Value) {
		if e.AST == nil {
			continue
		}
		expr.WalkIdentifierPaths(e.AST, func(path string, span expr.Span) {
			taint := expr.ClassifyPath(path)
			conf := finding.ConfidenceUnknown
			switch taint {
			case expr.TaintAttacker:
				conf = finding.ConfidenceHigh
			case expr.TaintStepOutput:
				conf = finding.ConfidenceMedium
			default:
				return
			}
			loc := s.Location
			loc.Start += span.Start
			loc.End = loc.Start + (span.End - span.Start)
			out = append(out, finding.Finding{
				AuditID:     "template-injection",
				Severity:    finding.High,
				Confidence:  conf,
				Description: "expression '" + path + "' expands attacker-influenceable text directly into a code-reaching sink",
				Locations: []finding.Annotation{{
					Location: loc,
					Message:  path,
				}},
				Remediation: "pass the value through an intermediate env var set with `env:` and reference it via the shell's own expansion (e.g. \"$VAR\") instead of interpolating it into the template",
			})
		})
	}
	return out
}
