// SPDX-License-Identifier: MIT

// Package uses parses the `uses:` reference strings found on workflow
// jobs, job steps, and composite action steps into a tagged variant
// type, and classifies the pin strength of the reference's ref/tag.
//
// A `uses:` value names one of three things: a versioned action
// published at owner/repo[/subpath]@ref, a local action living in the
// same checkout (./path or ../path), or a Docker image
// (docker://image[:tag]). Reusable workflow calls use the same
// owner/repo[/path]@ref@ shape but additionally require the path to
// end in a .yml/.yaml file under .github/workflows.
package uses

import (
	"fmt"
	"strings"
)

// Kind distinguishes the three shapes a `uses:` value can take.
type Kind int

const (
	KindUnknown Kind = iota
	KindRepositoryAction
	KindLocalAction
	KindDockerImage
)

// PinStrength classifies how resistant a reference is to the action's
// maintainer (or an attacker who compromises their account) silently
// swapping out what the ref points to.
type PinStrength int

const (
	// PinUnknown applies to local actions and anything without a ref,
	// where pin strength is not a meaningful concept.
	PinUnknown PinStrength = iota
	// PinUnpinned is a mutable ref the maintainer can repoint at any
	// time: a branch name, or a tag without any sha guarantee.
	PinUnpinned
	// PinSymbolic is a ref that looks like a released version (a tag
	// such as v4 or v4.1.0) but is still just a movable tag.
	PinSymbolic
	// PinHash is a full 40-character commit SHA: immutable short of a
	// force-push rewriting history.
	PinHash
)

func (p PinStrength) String() string {
	switch p {
	case PinHash:
		return "hash-pinned"
	case PinSymbolic:
		return "symbolic"
	case PinUnpinned:
		return "unpinned"
	default:
		return "unknown"
	}
}

// Reference is a parsed `uses:` value.
type Reference struct {
	Kind Kind
	Raw  string

	// KindRepositoryAction / reusable workflow calls.
	Owner   string
	Repo    string
	SubPath string
	Ref     string

	// KindLocalAction.
	Path string

	// KindDockerImage.
	Image string
	Tag   string
}

// IsReusableWorkflowCall reports whether a repository-action reference
// actually points at a reusable workflow definition, identified by a
// SubPath ending in a workflow file under .github/workflows.
func (r Reference) IsReusableWorkflowCall() bool {
	if r.Kind != KindRepositoryAction {
		return false
	}
	p := r.SubPath
	return strings.Contains(p, ".github/workflows/") &&
		(strings.HasSuffix(p, ".yml") || strings.HasSuffix(p, ".yaml"))
}

// Slug returns "owner/repo" for a repository action, ignoring any
// subpath. Empty for other kinds.
func (r Reference) Slug() string {
	if r.Kind != KindRepositoryAction {
		return ""
	}
	return r.Owner + "/" + r.Repo
}

// Parse parses a raw `uses:` string into a Reference. It never returns
// an error for local-action or Docker forms (those have no mandatory
// ref); a repository-action reference without an explicit @ref is
// rejected, since GitHub Actions itself requires one.
func Parse(raw string) (Reference, error) {
	if raw == "" {
		return Reference{}, fmt.Errorf("uses: empty reference")
	}
	switch {
	case strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../"):
		return Reference{Kind: KindLocalAction, Raw: raw, Path: raw}, nil
	case strings.HasPrefix(raw, "docker://"):
		return parseDocker(raw), nil
	default:
		return parseRepositoryAction(raw)
	}
}

func parseDocker(raw string) Reference {
	image := strings.TrimPrefix(raw, "docker://")
	ref := Reference{Kind: KindDockerImage, Raw: raw, Tag: "latest"}
	// A registry host component contains a ':' for its port, which
	// must not be mistaken for the image:tag separator; only split on
	// the last colon, and only when it comes after the last slash.
	lastSlash := strings.LastIndex(image, "/")
	lastColon := strings.LastIndex(image, ":")
	if lastColon > lastSlash {
		ref.Image = image[:lastColon]
		ref.Tag = image[lastColon+1:]
	} else {
		ref.Image = image
	}
	return ref
}

func parseRepositoryAction(raw string) (Reference, error) {
	parts := strings.SplitN(raw, "@", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Reference{}, fmt.Errorf("uses: %q missing explicit @ref", raw)
	}
	repoPath, ref := parts[0], parts[1]

	segs := strings.SplitN(repoPath, "/", 3)
	if len(segs) < 2 || segs[0] == "" || segs[1] == "" {
		return Reference{}, fmt.Errorf("uses: %q is not a valid owner/repo[/path]@ref reference", raw)
	}
	r := Reference{
		Kind:  KindRepositoryAction,
		Raw:   raw,
		Owner: segs[0],
		Repo:  segs[1],
		Ref:   ref,
	}
	if len(segs) == 3 {
		r.SubPath = segs[2]
	}
	return r, nil
}

// isHex reports whether s consists entirely of hexadecimal digits.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
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

const fullSHALength = 40

// ClassifyPin reports the pin strength of a repository-action or
// reusable-workflow-call reference's Ref. A full 40-character hex
// string is treated as an immutable commit SHA; anything else — a
// branch name, a short SHA, or a version tag like v4 — is mutable and
// therefore at most symbolically pinned.
func ClassifyPin(ref string) PinStrength {
	if ref == "" {
		return PinUnknown
	}
	if len(ref) == fullSHALength && isHex(ref) {
		return PinHash
	}
	if looksLikeVersionTag(ref) {
		return PinSymbolic
	}
	return PinUnpinned
}

// looksLikeVersionTag reports whether ref resembles a released version
// tag (v4, v4.1, v4.1.0, 4.1.0) as opposed to a branch name like main.
func looksLikeVersionTag(ref string) bool {
	s := strings.TrimPrefix(ref, "v")
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
