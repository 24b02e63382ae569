// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// RunsOnForm distinguishes the three legal shapes of `runs-on:`, §4.2.
type RunsOnForm int

const (
	RunsOnSingle RunsOnForm = iota
	RunsOnAnyOf
	RunsOnGroup
)

// RunsOn models `runs-on:`.
type RunsOn struct {
	Form     RunsOnForm
	Labels   []string // single label, or the any-of set
	Group    string   // RunsOnGroup only
	Location finding.Location
}

// HasLabel reports whether label is among the runner labels (not
// meaningful for RunsOnGroup, which has no label list of its own).
func (r RunsOn) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func decodeRunsOn(n *yaml.Node, loc func(*yaml.Node) finding.Location) (RunsOn, error) {
	r := RunsOn{Location: loc(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		r.Form = RunsOnSingle
		r.Labels = []string{n.Value}
		return r, nil
	case yaml.SequenceNode:
		r.Form = RunsOnAnyOf
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return r, errAt(item, "runs-on: sequence entries must be scalar labels")
			}
			r.Labels = append(r.Labels, item.Value)
		}
		return r, nil
	case yaml.MappingNode:
		r.Form = RunsOnGroup
		for i := 0; i < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			switch key.Value {
			case "group":
				r.Group = val.Value
			case "labels":
				switch val.Kind {
				case yaml.ScalarNode:
					r.Labels = []string{val.Value}
				case yaml.SequenceNode:
					for _, item := range val.Content {
						r.Labels = append(r.Labels, item.Value)
					}
				}
			}
		}
		return r, nil
	default:
		return r, fmt.Errorf("runs-on: unexpected node kind at line %d", n.Line)
	}
}
