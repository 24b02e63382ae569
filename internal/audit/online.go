// SPDX-License-Identifier: MIT

package audit

import (
	"context"

	"github.com/gha-sec/zizmor/internal/advisory"
	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
	"github.com/gha-sec/zizmor/internal/uses"
)

// usesRef pairs a parsed repository-action reference with the
// location of the `uses:` string it came from.
type usesRef struct {
	Ref uses.Reference
	Loc finding.Location
}

// repoActionSteps walks every uses-step (job-level reusable calls and
// step-level action references) in the workflow, yielding the parsed
// reference alongside the location to attach findings to.
func repoActionSteps(w *model.Workflow) []usesRef {
	var out []usesRef
	add := func(raw *model.StringNode) {
		if raw == nil {
			return
		}
		ref, err := uses.Parse(raw.Value)
		if err != nil || ref.Kind != uses.KindRepositoryAction {
			return
		}
		out = append(out, usesRef{ref, raw.Location})
	}
	for _, id := range w.JobOrder {
		job := w.Jobs[id]
		if job == nil {
			continue
		}
		if job.Kind == model.ReusableCallJob {
			add(job.Uses)
		}
		for _, step := range job.Steps {
			if step.Kind == model.UsesStep {
				add(step.Uses)
			}
		}
	}
	return out
}

// ImpostorCommit verifies, for every hash-pinned repository action,
// that the pinned commit is reachable on the claimant repository
// itself rather than only on a fork that happens to share the commit.
func ImpostorCommit(ctx context.Context, in Input, res *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil || res == nil || res.Offline() {
		return nil, nil
	}
	var out []finding.Finding
	for _, ra := range repoActionSteps(in.Workflow) {
		if uses.ClassifyPin(ra.Ref.Ref) != uses.PinHash {
			continue
		}
		imp, err := res.CheckImpostor(ctx, ra.Ref.Owner, ra.Ref.Repo, ra.Ref.Ref)
		if err != nil || !imp.Checked || imp.InNetwork {
			continue
		}
		out = append(out, finding.Finding{
			AuditID:     "impostor-commit",
			Severity:    finding.High,
			Confidence:  finding.ConfidenceHigh,
			Description: "pinned commit is not reachable on " + ra.Ref.Slug() + "; it may only exist on a fork",
			Locations: []finding.Annotation{{
				Location: ra.Loc,
				Message:  "commit " + ra.Ref.Ref + " not found on " + ra.Ref.Slug(),
			}},
			Remediation: "verify the commit actually belongs to the upstream repository before trusting this pin",
		})
	}
	return out, nil
}

// RefConfusion flags a symbolic ref (tag or branch name, not a raw
// SHA) that exists in BOTH the tag and branch namespaces on the
// upstream repository, which makes `@ref` ambiguous: a repository
// owner can redirect an existing pin by creating a same-named ref in
// whichever namespace currently loses the ambiguity.
func RefConfusion(ctx context.Context, in Input, res *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil || res == nil || res.Offline() {
		return nil, nil
	}
	var out []finding.Finding
	for _, ra := range repoActionSteps(in.Workflow) {
		if uses.ClassifyPin(ra.Ref.Ref) == uses.PinHash {
			continue
		}
		rc, err := res.CheckRefConfusion(ctx, ra.Ref.Owner, ra.Ref.Repo, ra.Ref.Ref)
		if err != nil || !rc.Ambiguous() {
			continue
		}
		out = append(out, finding.Finding{
			AuditID:     "ref-confusion",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "ref '" + ra.Ref.Ref + "' exists as both a branch and a tag on " + ra.Ref.Slug() + ", making this pin ambiguous",
			Locations: []finding.Annotation{{
				Location: ra.Loc,
				Message:  "ambiguous ref " + ra.Ref.Ref,
			}},
			Remediation: "pin to the full commit SHA instead of a ref name that exists in both namespaces",
		})
	}
	return out, nil
}

// advisoryClients is a narrow seam letting the engine wire
// a concrete advisory.Client alongside the resolver without widening
// every audit's signature; KnownVulnerableActions falls back to an
// offline no-op when none is configured for this run.
var advisoryClients = struct {
	get func(*resolver.Client) advisory.Client
}{get: func(*resolver.Client) advisory.Client { return advisory.Offline() }}

// SetAdvisoryClientFactory lets the engine supply the advisory.Client
// to use for a given resolver.Client, since the two are constructed
// together from the same online/offline + token configuration.
func SetAdvisoryClientFactory(f func(*resolver.Client) advisory.Client) {
	advisoryClients.get = f
}

// KnownVulnerableActions looks up each repository action against the
// advisory database and flags every published advisory for its
// owner/repo. The pinned ref is not compared against an advisory's
// vulnerable version range, so an advisory is reported whatever
// version the step pins.
func KnownVulnerableActions(ctx context.Context, in Input, res *resolver.Client) ([]finding.Finding, error) {
	if in.Workflow == nil || res == nil || res.Offline() {
		return nil, nil
	}
	client := advisoryClients.get(res)
	seen := map[string]bool{}
	var out []finding.Finding
	for _, ra := range repoActionSteps(in.Workflow) {
		slug := ra.Ref.Slug()
		advs, err := client.AdvisoriesFor(ctx, ra.Ref.Owner, ra.Ref.Repo)
		if err != nil || len(advs) == 0 {
			continue
		}
		for _, a := range advs {
			key := slug + "|" + a.GHSAID
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, finding.Finding{
				AuditID:     "known-vulnerable-actions",
				Severity:    advisorySeverity(a.Severity),
				Confidence:  finding.ConfidenceHigh,
				Description: slug + " has a published security advisory: " + a.Summary,
				Locations: []finding.Annotation{{
					Location: ra.Loc,
					Message:  a.GHSAID,
				}},
				Remediation: "update the pin past the advisory's patched version",
			})
		}
	}
	return out, nil
}

func advisorySeverity(s string) finding.Severity {
	switch s {
	case "critical", "high":
		return finding.High
	case "moderate", "medium":
		return finding.Medium
	case "low":
		return finding.Low
	default:
		return finding.Medium
	}
}
