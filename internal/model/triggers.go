// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// TriggerForm distinguishes the three legal shapes of `on:`, §4.2.
type TriggerForm int

const (
	TriggerSingle TriggerForm = iota
	TriggerSet
	TriggerKeyed
)

// TriggerConfig is the (possibly empty) configuration mapping for one
// keyed trigger, e.g. `pull_request: {branches: [main]}`.
type TriggerConfig struct {
	Raw      *yaml.Node
	Location finding.Location
}

// Triggers models `on:`.
type Triggers struct {
	Form   TriggerForm
	Names  []string // resolved trigger names regardless of form
	Keyed  map[string]TriggerConfig
	Order  []string
	Location finding.Location
}

// Has reports whether name is among the workflow's triggers.
func (t Triggers) Has(name string) bool {
	for _, n := range t.Names {
		if n == name {
			return true
		}
	}
	return false
}

func decodeTriggers(n *yaml.Node, loc func(*yaml.Node) finding.Location) (Triggers, error) {
	t := Triggers{Location: loc(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		t.Form = TriggerSingle
		t.Names = []string{n.Value}
		return t, nil
	case yaml.SequenceNode:
		t.Form = TriggerSet
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return t, errAt(item, "on: sequence entries must be scalar trigger names")
			}
			t.Names = append(t.Names, item.Value)
		}
		return t, nil
	case yaml.MappingNode:
		t.Form = TriggerKeyed
		t.Keyed = make(map[string]TriggerConfig, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			t.Names = append(t.Names, key.Value)
			t.Order = append(t.Order, key.Value)
			t.Keyed[key.Value] = TriggerConfig{Raw: val, Location: loc(val)}
		}
		return t, nil
	default:
		return t, fmt.Errorf("on: unexpected node kind at line %d", n.Line)
	}
}
