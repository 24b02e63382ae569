// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/loader"
)

// RunsKind distinguishes the three `runs:` shapes a composite/docker/
// javascript action.yml may take, §3.
type RunsKind int

const (
	RunsComposite RunsKind = iota
	RunsDocker
	RunsJavaScript
)

// ActionInput models one `inputs.<name>` entry.
type ActionInput struct {
	Description *StringNode
	Required    *Scalar
	Default     *Scalar
}

// ActionOutput models one `outputs.<name>` entry.
type ActionOutput struct {
	Description *StringNode
	Value       *Scalar
}

// Runs models the action's `runs:` block.
type Runs struct {
	Kind RunsKind

	// Composite.
	Steps []*Step

	// Docker.
	Image string
	Args  []Scalar
	Env   EnvMap

	// JavaScript.
	Main string
	Pre  *StringNode
	Post *StringNode
}

// Action models a composite/docker/javascript action.yml definition.
type Action struct {
	Path        string
	Name        *StringNode
	Description *StringNode
	Inputs      map[string]ActionInput
	Outputs     map[string]ActionOutput
	Runs        Runs
}

// DecodeAction builds a typed Action from a loaded action.yml/action.yaml document.
func DecodeAction(doc *loader.Document) (*Action, error) {
	if doc.Root == nil || len(doc.Root.Content) == 0 {
		return nil, nil
	}
	top := doc.Root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: action document must be a mapping", doc.Path)
	}
	loc := newLocator(doc)

	a := &Action{Path: doc.Path}
	for i := 0; i < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			a.Name, err = decodeOptionalStringNode(val, loc)
		case "description":
			a.Description, err = decodeOptionalStringNode(val, loc)
		case "inputs":
			a.Inputs, err = decodeActionInputs(val, loc)
		case "outputs":
			a.Outputs, err = decodeActionOutputs(val, loc)
		case "runs":
			a.Runs, err = decodeRuns(val, loc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path, err)
		}
	}
	return a, nil
}

func decodeActionInputs(n *yaml.Node, loc locator) (map[string]ActionInput, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "inputs: expected mapping")
	}
	out := make(map[string]ActionInput, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var in ActionInput
		if _, d := mappingLookup(val, "description"); d != nil {
			sn, err := decodeOptionalStringNode(d, loc)
			if err != nil {
				return nil, err
			}
			in.Description = sn
		}
		if _, r := mappingLookup(val, "required"); r != nil {
			sc, err := decodeWidenedScalar(r, loc)
			if err != nil {
				return nil, err
			}
			in.Required = &sc
		}
		if _, d := mappingLookup(val, "default"); d != nil {
			sc, err := decodeWidenedScalar(d, loc)
			if err != nil {
				return nil, err
			}
			in.Default = &sc
		}
		out[key.Value] = in
	}
	return out, nil
}

func decodeActionOutputs(n *yaml.Node, loc locator) (map[string]ActionOutput, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "outputs: expected mapping")
	}
	out := make(map[string]ActionOutput, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var o ActionOutput
		if _, d := mappingLookup(val, "description"); d != nil {
			sn, err := decodeOptionalStringNode(d, loc)
			if err != nil {
				return nil, err
			}
			o.Description = sn
		}
		if _, v := mappingLookup(val, "value"); v != nil {
			sc, err := decodeWidenedScalar(v, loc)
			if err != nil {
				return nil, err
			}
			o.Value = &sc
		}
		out[key.Value] = o
	}
	return out, nil
}

func decodeRuns(n *yaml.Node, loc locator) (Runs, error) {
	var r Runs
	if n.Kind != yaml.MappingNode {
		return r, errAt(n, "runs: expected mapping")
	}
	_, usingNode := mappingLookup(n, "using")
	if usingNode == nil {
		return r, errAt(n, "runs: missing 'using'")
	}
	switch usingNode.Value {
	case "composite":
		r.Kind = RunsComposite
		_, stepsNode := mappingLookup(n, "steps")
		if stepsNode == nil {
			return r, errAt(n, "runs: composite action missing 'steps'")
		}
		steps, err := decodeSteps(stepsNode, loc)
		if err != nil {
			return r, err
		}
		r.Steps = steps
		return r, nil
	case "docker":
		r.Kind = RunsDocker
		if _, img := mappingLookup(n, "image"); img != nil {
			r.Image = img.Value
		}
		if _, args := mappingLookup(n, "args"); args != nil && args.Kind == yaml.SequenceNode {
			for _, item := range args.Content {
				sc, err := decodeWidenedScalar(item, loc)
				if err != nil {
					return r, err
				}
				r.Args = append(r.Args, sc)
			}
		}
		if _, env := mappingLookup(n, "env"); env != nil {
			em, err := decodeEnvMap(env, loc)
			if err != nil {
				return r, err
			}
			r.Env = em
		}
		return r, nil
	default:
		r.Kind = RunsJavaScript
		if _, main := mappingLookup(n, "main"); main != nil {
			r.Main = main.Value
		}
		if _, pre := mappingLookup(n, "pre"); pre != nil {
			sn, err := decodeOptionalStringNode(pre, loc)
			if err != nil {
				return r, err
			}
			r.Pre = sn
		}
		if _, post := mappingLookup(n, "post"); post != nil {
			sn, err := decodeOptionalStringNode(post, loc)
			if err != nil {
				return r, err
			}
			r.Post = sn
		}
		return r, nil
	}
}
