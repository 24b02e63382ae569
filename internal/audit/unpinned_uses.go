// SPDX-License-Identifier: MIT

package audit

import (
	"context"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
	"github.com/gha-sec/zizmor/internal/uses"
)

// UnpinnedUses flags a `uses:` reference with no @ref at all, or a
// docker image reference with no tag (which floats to whatever
// `latest` currently resolves to). At --pedantic, it additionally
// flags any ref that isn't a full 40-hex commit SHA, since a symbolic
// tag or branch can be repointed by the action's maintainer (or
// anyone who compromises their account) without the pin ever changing.
func UnpinnedUses(ctx context.Context, in Input, _ *resolver.Client) ([]finding.Finding, error) {
	pedantic := Pedantic(ctx)
	var out []finding.Finding
	visitStep := func(step *model.Step) {
		if step == nil || step.Kind != model.UsesStep || step.Uses == nil {
			return
		}
		out = append(out, unpinnedFindingsFor(step.Uses.Value, step.Location, pedantic)...)
	}

	if in.Workflow != nil {
		for _, id := range in.Workflow.JobOrder {
			job := in.Workflow.Jobs[id]
			if job == nil {
				continue
			}
			if job.Kind == model.ReusableCallJob && job.Uses != nil {
				out = append(out, unpinnedFindingsFor(job.Uses.Value, job.Location, pedantic)...)
			}
			for _, step := range job.Steps {
				visitStep(step)
			}
		}
	}
	if in.Action != nil && in.Action.Runs.Kind == model.RunsComposite {
		for _, step := range in.Action.Runs.Steps {
			visitStep(step)
		}
	}
	return out, nil
}

func unpinnedFindingsFor(raw string, loc finding.Location, pedantic bool) []finding.Finding {
	ref, err := uses.Parse(raw)
	if err != nil {
		return []finding.Finding{{
			AuditID:     "unpinned-uses",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "uses reference is missing an explicit @ref",
			Locations:   []finding.Annotation{{Location: loc, Message: raw}},
			Remediation: "pin to a tag or, preferably, a full commit SHA",
		}}
	}

	switch ref.Kind {
	case uses.KindRepositoryAction:
		pin := uses.ClassifyPin(ref.Ref)
		if pin == uses.PinHash {
			return nil
		}
		if pedantic {
			return []finding.Finding{{
				AuditID:     "unpinned-uses",
				Severity:    finding.Medium,
				Confidence:  finding.ConfidenceHigh,
				Description: ref.Slug() + " is pinned to a mutable ref ('" + ref.Ref + "') rather than a commit SHA",
				Locations:   []finding.Annotation{{Location: loc, Message: ref.Ref}},
				Remediation: "pin to the full 40-character commit SHA the tag currently resolves to",
			}}
		}
		return nil
	case uses.KindDockerImage:
		if ref.Tag != "latest" && ref.Tag != "" {
			return nil
		}
		return []finding.Finding{{
			AuditID:     "unpinned-uses",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "docker action '" + ref.Image + "' has no explicit tag and floats to latest",
			Locations:   []finding.Annotation{{Location: loc, Message: raw}},
			Remediation: "pin the image to an explicit tag or digest",
		}}
	default:
		return nil
	}
}
