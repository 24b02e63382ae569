// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// SecretsForm distinguishes a reusable-call's `secrets: inherit` from
// an explicit secrets map, §3/§4.2: "scalar `inherit` is distinct from
// an explicit map."
type SecretsForm int

const (
	SecretsAbsent SecretsForm = iota
	SecretsInherit
	SecretsExplicit
)

// Secrets models `jobs.<id>.secrets:` on a reusable-workflow call.
type Secrets struct {
	Form     SecretsForm
	Explicit map[string]Scalar
	Location finding.Location
}

func decodeSecrets(n *yaml.Node, loc func(*yaml.Node) finding.Location) (Secrets, error) {
	s := Secrets{Location: loc(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value != "inherit" {
			return s, fmt.Errorf("secrets: scalar value must be \"inherit\", got %q at line %d", n.Value, n.Line)
		}
		s.Form = SecretsInherit
		return s, nil
	case yaml.MappingNode:
		s.Form = SecretsExplicit
		s.Explicit = make(map[string]Scalar, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			sc, err := decodeWidenedScalar(val, loc)
			if err != nil {
				return s, err
			}
			s.Explicit[key.Value] = sc
		}
		return s, nil
	default:
		return s, fmt.Errorf("secrets: unexpected node kind at line %d", n.Line)
	}
}
