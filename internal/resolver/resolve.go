// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v72/github"
)

// RefKind reports which GitHub ref namespace a resolved reference
// actually lived in, distinct from uses.ClassifyPin's syntactic guess
// at the ref string's shape.
type RefKind int

const (
	RefUnknown RefKind = iota
	RefCommit
	RefTag
	RefBranch
)

// Resolution is the result of resolving an action reference's ref to
// the commit it currently points at.
type Resolution struct {
	SHA      string
	Kind     RefKind
	Resolved bool
}

// ResolveRef resolves ref (a tag, branch, or commit SHA-like string)
// against owner/repo to the commit it currently points at. It checks,
// in order, whether ref is itself an existing commit, then a tag, then
// a branch. On an offline client, or when nothing matches, Resolved is
// false and no error is returned — callers treat an unresolved ref as
// "unknown", not as a hard failure.
func (c *Client) ResolveRef(ctx context.Context, owner, repo, ref string) (Resolution, error) {
	if c.Offline() {
		return Resolution{}, nil
	}
	key := "resolveref:" + owner + "/" + repo + "@" + ref
	if v, ok := cacheGet[Resolution](c, key); ok {
		return v, nil
	}

	res, err := c.resolveRefUncached(ctx, owner, repo, ref)
	if err != nil {
		return Resolution{}, err
	}
	cacheSet(c, key, res)
	return res, nil
}

func (c *Client) resolveRefUncached(ctx context.Context, owner, repo, ref string) (Resolution, error) {
	if looksLikeSHA(ref) {
		if _, resp, err := c.gh.Git.GetCommit(ctx, owner, repo, ref); err == nil {
			return Resolution{SHA: ref, Kind: RefCommit, Resolved: true}, nil
		} else if !isNotFoundError(err, resp) {
			return Resolution{}, fmt.Errorf("resolver: verifying commit %q: %w", ref, err)
		}
	}

	if sha, found, resp, err := c.refLookup(ctx, owner, repo, "tags", ref); err != nil {
		if !isNotFoundError(err, resp) {
			return Resolution{}, err
		}
	} else if found {
		return Resolution{SHA: sha, Kind: RefTag, Resolved: true}, nil
	}

	if sha, found, resp, err := c.refLookup(ctx, owner, repo, "heads", ref); err != nil {
		if !isNotFoundError(err, resp) {
			return Resolution{}, err
		}
	} else if found {
		return Resolution{SHA: sha, Kind: RefBranch, Resolved: true}, nil
	}

	return Resolution{}, nil
}

func (c *Client) refLookup(ctx context.Context, owner, repo, refType, ref string) (sha string, found bool, resp *github.Response, err error) {
	refPath := fmt.Sprintf("refs/%s/%s", refType, ref)
	gitRef, resp, err := c.gh.Git.GetRef(ctx, owner, repo, refPath)
	if err != nil {
		return "", false, resp, err
	}
	if gitRef != nil && gitRef.Object != nil && gitRef.Object.SHA != nil {
		return *gitRef.Object.SHA, true, resp, nil
	}
	return "", false, resp, nil
}

func looksLikeSHA(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Impostor reports whether a pinned commit SHA is reachable from the
// named repository at all. A symbolic ref like v4 is guaranteed to
// live in the repository that published it; a raw SHA is not — an
// attacker who can get a lookalike commit accepted into ANY fork can
// publish a pull request that edits a workflow's pin to point at that
// SHA, quoting a trusted-looking owner/repo that never actually
// contained the commit.
type Impostor struct {
	// InNetwork is true if comparing the commit with owner/repo's
	// default branch succeeds; false means that comparison returned
	// not-found.
	InNetwork bool
	Checked   bool
}

// CheckImpostor compares sha with owner/repo's default branch: any
// comparison status (ahead, behind, identical or diverged) counts as
// InNetwork, and a not-found response as not. It returns Checked=false
// (rather than an error) if offline or if the lookup itself fails,
// since "can't tell" is a valid
// and common outcome for this check.
func (c *Client) CheckImpostor(ctx context.Context, owner, repo, sha string) (Impostor, error) {
	if c.Offline() || !looksLikeSHA(sha) {
		return Impostor{}, nil
	}
	key := "impostor:" + owner + "/" + repo + "@" + sha
	if v, ok := cacheGet[Impostor](c, key); ok {
		return v, nil
	}

	repoInfo, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return Impostor{}, nil
	}
	defaultBranch := repoInfo.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	cmp, resp, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, sha, defaultBranch, nil)
	if err != nil {
		if isNotFoundError(err, resp) {
			res := Impostor{InNetwork: false, Checked: true}
			cacheSet(c, key, res)
			return res, nil
		}
		return Impostor{}, nil
	}
	// "ahead" / "identical" / "behind" all mean the commit shares
	// history with the default branch; "diverged" still means the
	// repository knows the commit, just not as an ancestor.
	res := Impostor{InNetwork: cmp.GetStatus() != "", Checked: true}
	cacheSet(c, key, res)
	return res, nil
}

// RefConfusion reports whether a ref name exists as BOTH a branch and
// a tag in owner/repo; if so, `@name` is ambiguous and GitHub's
// resolution order (actions resolve tags before branches) can differ
// from what a casual reader assumes, letting a repository owner swap
// the meaning of an existing pin by creating a same-named ref in the
// other namespace.
type RefConfusion struct {
	IsBranch bool
	IsTag    bool
	Checked  bool
}

// Ambiguous reports whether both namespaces contain this ref name.
func (r RefConfusion) Ambiguous() bool {
	return r.Checked && r.IsBranch && r.IsTag
}

// CheckRefConfusion looks up ref as both a branch and a tag name.
func (c *Client) CheckRefConfusion(ctx context.Context, owner, repo, ref string) (RefConfusion, error) {
	if c.Offline() {
		return RefConfusion{}, nil
	}
	key := "refconfusion:" + owner + "/" + repo + "@" + ref
	if v, ok := cacheGet[RefConfusion](c, key); ok {
		return v, nil
	}

	_, branchResp, branchErr := c.gh.Repositories.GetBranch(ctx, owner, repo, ref, 0)
	_, tagFound, tagResp, tagErr := c.refLookup(ctx, owner, repo, "tags", ref)

	if branchErr != nil && !isNotFoundError(branchErr, branchResp) {
		return RefConfusion{}, nil
	}
	if tagErr != nil && !isNotFoundError(tagErr, tagResp) {
		return RefConfusion{}, nil
	}

	res := RefConfusion{
		IsBranch: branchErr == nil,
		IsTag:    tagFound,
		Checked:  true,
	}
	cacheSet(c, key, res)
	return res, nil
}

// NormalizeRepoPath splits an "owner/repo" slug, tolerating a
// leading/trailing slash from a malformed `uses:` value.
func NormalizeRepoPath(slug string) (owner, repo string, ok bool) {
	parts := strings.SplitN(strings.Trim(slug, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
