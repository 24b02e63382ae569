// SPDX-License-Identifier: MIT

// Package advisory looks up published GitHub Security Advisories for
// Actions marketplace entries, so the known-vulnerable-actions audit
// can flag an action whose repository has a disclosed vulnerability.
// Lookups are by owner/repo only; no ref or commit is matched against
// an advisory's vulnerable version range.
package advisory

import (
	"context"
	"strings"

	"github.com/google/go-github/v72/github"
)

// Advisory is the subset of a GitHub Security Advisory this package
// cares about.
type Advisory struct {
	GHSAID      string
	Summary     string
	Severity    string
	VulnerableVersionRange string
}

// Client looks up advisories for a repository slug. The Client returned
// by Offline always returns no advisories, matching the tool's
// offline-first degrade-gracefully posture.
type Client interface {
	AdvisoriesFor(ctx context.Context, owner, repo string) ([]Advisory, error)
}

// offlineClient is used whenever the engine is run with --offline or
// without a GitHub token; it never makes a network call.
type offlineClient struct{}

func (offlineClient) AdvisoriesFor(context.Context, string, string) ([]Advisory, error) {
	return nil, nil
}

// Offline returns a Client that always reports no known advisories.
func Offline() Client {
	return offlineClient{}
}

// githubClient queries the Security Advisories API, scoped to the
// "actions" ecosystem, for ones affecting owner/repo.
type githubClient struct {
	gh *github.Client
}

// New builds a Client backed by an authenticated *github.Client.
func New(gh *github.Client) Client {
	if gh == nil {
		return Offline()
	}
	return &githubClient{gh: gh}
}

func (c *githubClient) AdvisoriesFor(ctx context.Context, owner, repo string) ([]Advisory, error) {
	slug := owner + "/" + repo
	opts := &github.ListGlobalSecurityAdvisoriesOptions{
		Ecosystem: github.Ptr("actions"),
		Affects:   github.Ptr(slug),
	}
	ghas, _, err := c.gh.SecurityAdvisories.ListGlobalSecurityAdvisories(ctx, opts)
	if err != nil {
		// A failed advisory lookup degrades to "none known" rather than
		// aborting the audit: the online check is a bonus signal, not a
		// precondition for the rest of the run.
		return nil, nil
	}

	out := make([]Advisory, 0, len(ghas))
	for _, g := range ghas {
		if g == nil {
			continue
		}
		a := Advisory{
			GHSAID:   g.GetGHSAID(),
			Summary:  g.GetSummary(),
			Severity: strings.ToLower(g.GetSeverity()),
		}
		for _, v := range g.Vulnerabilities {
			if v == nil || v.Package == nil {
				continue
			}
			if !strings.EqualFold(v.Package.GetName(), slug) {
				continue
			}
			if r := v.GetVulnerableVersionRange(); r != "" {
				a.VulnerableVersionRange = r
			}
		}
		out = append(out, a)
	}
	return out, nil
}
