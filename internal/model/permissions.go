// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// PermissionForm distinguishes the two legal shapes of a `permissions:`
// block, per spec §3 and §4.2: a complete-set shorthand, or a partial
// map of scope -> level. Absence (the zero Permissions value, Form ==
// PermissionsAbsent) is distinct from an explicit empty map, which
// parses as PermissionsWhole with an empty Level.
type PermissionForm int

const (
	PermissionsAbsent PermissionForm = iota
	PermissionsWhole
	PermissionsPartial
)

// Permissions models the workflow- or job-level `permissions:` field.
type Permissions struct {
	Form PermissionForm
	// Level holds "read-all", "write-all", or "" (explicit empty map)
	// when Form == PermissionsWhole.
	Level string
	// Scopes holds scope -> "read"|"write"|"none" when
	// Form == PermissionsPartial.
	Scopes   map[string]string
	Location finding.Location
}

// IsReadAll reports the read-all shorthand, used by WidenedScopes for
// excessive-permissions.
func (p Permissions) IsReadAll() bool {
	return p.Form == PermissionsWhole && p.Level == "read-all"
}

// IsWriteAll reports the write-all shorthand.
func (p Permissions) IsWriteAll() bool {
	return p.Form == PermissionsWhole && p.Level == "write-all"
}

// WidenedScopes returns scopes in other that grant a level not allowed
// by p, used by excessive-permissions to detect a job widening the
// workflow-level default.
func (p Permissions) WidenedScopes(other Permissions) []string {
	if other.Form == PermissionsAbsent {
		return nil
	}
	if p.IsWriteAll() {
		return nil // nothing can widen write-all
	}
	if other.IsWriteAll() {
		return []string{"write-all"}
	}
	var widened []string
	for scope, level := range other.Scopes {
		if level != "write" {
			continue
		}
		if p.IsReadAll() {
			widened = append(widened, scope)
			continue
		}
		if p.Scopes[scope] != "write" {
			widened = append(widened, scope)
		}
	}
	return widened
}

func decodePermissions(n *yaml.Node, loc func(*yaml.Node) finding.Location) (Permissions, error) {
	p := Permissions{Location: loc(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Value {
		case "read-all", "write-all":
			p.Form = PermissionsWhole
			p.Level = n.Value
			return p, nil
		default:
			return p, fmt.Errorf("permissions: unexpected scalar %q at line %d", n.Value, n.Line)
		}
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			p.Form = PermissionsWhole
			p.Level = ""
			return p, nil
		}
		p.Form = PermissionsPartial
		p.Scopes = make(map[string]string, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return p, fmt.Errorf("permissions.%s: expected scalar level at line %d", key.Value, val.Line)
			}
			switch val.Value {
			case "read", "write", "none":
				p.Scopes[key.Value] = val.Value
			default:
				return p, fmt.Errorf("permissions.%s: invalid level %q at line %d", key.Value, val.Value, val.Line)
			}
		}
		return p, nil
	default:
		return p, fmt.Errorf("permissions: unexpected node kind at line %d", n.Line)
	}
}
