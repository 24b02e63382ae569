// SPDX-License-Identifier: MIT

// Package audit holds the registry of independent security checks run
// over a loaded workflow or action, and the runner that invokes them.
// Every audit is a pure function of the model and a resolver handle;
// audits never communicate with each other and their relative order
// never changes the resulting set of findings.
package audit

import (
	"context"
	"fmt"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// Scope restricts which input kinds an audit applies to.
type Scope int

const (
	ScopeBoth Scope = iota
	ScopeWorkflow
	ScopeAction
)

// Input bundles everything an audit function needs: the input file's
// path and its decoded model (exactly one of Workflow/Action is set,
// matching Scope). Inline suppression comments are applied by the
// engine after the run, not by audits.
type Input struct {
	Path     string
	Workflow *model.Workflow
	Action   *model.Action
}

// Func is the shape every audit implements. ctx bounds any online
// resolver calls the audit makes; res may be an offline Client, in
// which case online-only audits should return quickly with no
// findings (the runner also skips them outright based on metadata,
// but a defensive audit still behaves if invoked directly).
type Func func(ctx context.Context, in Input, res *resolver.Client) ([]finding.Finding, error)

// Audit bundles one check with its registry metadata.
type Audit struct {
	ID             string
	Scope          Scope
	RequiresOnline bool
	DefaultEnabled bool
	Run            Func
}

// Registry is the fixed set of audits this build ships. Order here is
// irrelevant to the output (findings are canonically sorted after the
// run) but is kept stable for readability.
var Registry = []Audit{
	{ID: "dangerous-triggers", Scope: ScopeWorkflow, DefaultEnabled: true, Run: DangerousTriggers},
	{ID: "artipacked", Scope: ScopeWorkflow, DefaultEnabled: true, Run: Artipacked},
	{ID: "excessive-permissions", Scope: ScopeWorkflow, DefaultEnabled: true, Run: ExcessivePermissions},
	{ID: "hardcoded-container-credentials", Scope: ScopeBoth, DefaultEnabled: true, Run: HardcodedContainerCredentials},
	{ID: "impostor-commit", Scope: ScopeBoth, RequiresOnline: true, DefaultEnabled: true, Run: ImpostorCommit},
	{ID: "known-vulnerable-actions", Scope: ScopeBoth, RequiresOnline: true, DefaultEnabled: true, Run: KnownVulnerableActions},
	{ID: "ref-confusion", Scope: ScopeBoth, RequiresOnline: true, DefaultEnabled: true, Run: RefConfusion},
	{ID: "self-hosted-runner", Scope: ScopeWorkflow, DefaultEnabled: false, Run: SelfHostedRunner},
	{ID: "template-injection", Scope: ScopeBoth, DefaultEnabled: true, Run: TemplateInjection},
	{ID: "use-trusted-publishing", Scope: ScopeWorkflow, DefaultEnabled: true, Run: UseTrustedPublishing},
	{ID: "unpinned-uses", Scope: ScopeBoth, DefaultEnabled: true, Run: UnpinnedUses},
	{ID: "insecure-commands", Scope: ScopeBoth, DefaultEnabled: true, Run: InsecureCommands},
	{ID: "github-env", Scope: ScopeWorkflow, DefaultEnabled: true, Run: GitHubEnv},
}

// Diagnostic is a runner-level event that is not itself a finding:
// an audit panicked or returned an error, or an online audit was
// skipped for lack of connectivity.
type Diagnostic struct {
	AuditID string
	Message string
}

// Options controls which audits the runner selects for a run.
type Options struct {
	Pedantic bool
	Offline  bool
	// Include, if non-empty, restricts the run to exactly these audit
	// IDs. Included audits are still subject to Offline gating, but a
	// default-disabled audit that is included runs without Pedantic.
	Include []string
	// Exclude removes audit IDs from the selected set.
	Exclude []string
}

func (o Options) selected(a Audit) bool {
	if len(o.Include) > 0 && !containsString(o.Include, a.ID) {
		return false
	}
	if containsString(o.Exclude, a.ID) {
		return false
	}
	if !a.DefaultEnabled && !o.Pedantic && len(o.Include) == 0 {
		return false
	}
	if a.RequiresOnline && o.Offline {
		return false
	}
	return true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func scopeMatches(s Scope, in Input) bool {
	switch s {
	case ScopeWorkflow:
		return in.Workflow != nil
	case ScopeAction:
		return in.Action != nil
	default:
		return true
	}
}

type ctxKey int

const pedanticKey ctxKey = iota

// Pedantic reports whether the current run has --pedantic set, for
// audits whose behavior (not just whether they run) depends on it,
// e.g. unpinned-uses.
func Pedantic(ctx context.Context) bool {
	v, _ := ctx.Value(pedanticKey).(bool)
	return v
}

// Run invokes every audit selected by opts against in, isolating each
// audit's panics and errors into a Diagnostic instead of letting them
// abort the rest of the run. Returned findings are NOT yet sorted;
// callers pass them through report.Sort before emission.
func Run(ctx context.Context, in Input, res *resolver.Client, opts Options) ([]finding.Finding, []Diagnostic) {
	ctx = context.WithValue(ctx, pedanticKey, opts.Pedantic)
	var findings []finding.Finding
	var diags []Diagnostic

	for _, a := range Registry {
		if !opts.selected(a) {
			if a.RequiresOnline && opts.Offline {
				diags = append(diags, Diagnostic{AuditID: a.ID, Message: "skipped: requires online access"})
			}
			continue
		}
		if !scopeMatches(a.Scope, in) {
			continue
		}
		fs, diag := runIsolated(ctx, a, in, res)
		findings = append(findings, fs...)
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	return findings, diags
}

// runIsolated calls a.Run, converting a panic or error into a
// Diagnostic so one misbehaving audit can never take down the run.
func runIsolated(ctx context.Context, a Audit, in Input, res *resolver.Client) (fs []finding.Finding, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			diag = &Diagnostic{AuditID: a.ID, Message: fmt.Sprintf("panic: %v", r)}
			fs = nil
		}
	}()
	out, err := a.Run(ctx, in, res)
	if err != nil {
		return nil, &Diagnostic{AuditID: a.ID, Message: err.Error()}
	}
	return out, nil
}
