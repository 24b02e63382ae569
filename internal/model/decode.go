// SPDX-License-Identifier: MIT

package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/loader"
)

// locator closes over a *loader.Document so every decode helper below
// can turn a yaml.Node into a span-tracked finding.Location without
// threading the document through every function signature.
type locator func(*yaml.Node) finding.Location

func newLocator(doc *loader.Document) locator {
	return func(n *yaml.Node) finding.Location {
		if n == nil {
			return finding.Location{Path: doc.Path}
		}
		return doc.NodeLocation(n)
	}
}

// DecodeWorkflow builds a typed Workflow from a loaded document. It is
// total: malformed schema produces an error carrying a line number,
// never a panic, per §4.2/§9.
func DecodeWorkflow(doc *loader.Document) (*Workflow, error) {
	if doc.Root == nil || len(doc.Root.Content) == 0 {
		return nil, nil
	}
	top := doc.Root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: workflow document must be a mapping", doc.Path)
	}
	loc := newLocator(doc)

	wf := &Workflow{Path: doc.Path, Location: loc(top)}
	for i := 0; i < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			wf.Name, err = decodeOptionalStringNode(val, loc)
		case "run-name":
			wf.RunName, err = decodeOptionalStringNode(val, loc)
		case "on":
			wf.On, err = decodeTriggers(val, loc)
		case "permissions":
			wf.Permissions, err = decodePermissions(val, loc)
		case "env":
			wf.Env, err = decodeEnvMap(val, loc)
		case "defaults":
			wf.Defaults, err = decodeDefaults(val, loc)
		case "concurrency":
			sc, e := decodeWidenedScalar(val, loc)
			wf.Concurrency, err = &sc, e
		case "jobs":
			wf.Jobs, wf.JobOrder, err = decodeJobs(val, loc)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Path, err)
		}
	}
	if wf.Jobs == nil {
		return nil, fmt.Errorf("%s: workflow is missing required 'jobs' block", doc.Path)
	}
	return wf, nil
}

func decodeDefaults(n *yaml.Node, loc locator) (*Defaults, error) {
	d := &Defaults{Location: loc(n)}
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "defaults: expected mapping")
	}
	_, runNode := mappingLookup(n, "run")
	if runNode == nil {
		return d, nil
	}
	rd := &RunDefaults{}
	var err error
	if _, shell := mappingLookup(runNode, "shell"); shell != nil {
		rd.Shell, err = decodeOptionalStringNode(shell, loc)
		if err != nil {
			return nil, err
		}
	}
	if _, wd := mappingLookup(runNode, "working-directory"); wd != nil {
		rd.WorkingDirectory, err = decodeOptionalStringNode(wd, loc)
		if err != nil {
			return nil, err
		}
	}
	d.Run = rd
	return d, nil
}

func decodeJobs(n *yaml.Node, loc locator) (map[string]*Job, []string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nil, errAt(n, "jobs: expected mapping of job-id to job")
	}
	jobs := make(map[string]*Job, len(n.Content)/2)
	var order []string
	for i := 0; i < len(n.Content); i += 2 {
		idNode, val := n.Content[i], n.Content[i+1]
		id := idNode.Value
		if _, dup := jobs[id]; dup {
			return nil, nil, errAt(idNode, "duplicate job id %q", id)
		}
		job, err := decodeJob(id, val, loc)
		if err != nil {
			return nil, nil, err
		}
		jobs[id] = job
		order = append(order, id)
	}
	return jobs, order, nil
}

func decodeJob(id string, n *yaml.Node, loc locator) (*Job, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "jobs.%s: expected mapping", id)
	}
	j := &Job{ID: id, Location: loc(n)}

	if _, usesNode := mappingLookup(n, "uses"); usesNode != nil {
		j.Kind = ReusableCallJob
	}

	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			j.Name, err = decodeOptionalStringNode(val, loc)
		case "needs":
			sc, e := decodeWidenedScalarOrList(val, loc)
			j.Needs, err = &sc, e
		case "if":
			sc, e := decodeWidenedScalar(val, loc)
			j.If, err = &sc, e
		case "permissions":
			j.Permissions, err = decodePermissions(val, loc)
		case "env":
			j.Env, err = decodeEnvMap(val, loc)
		case "runs-on":
			j.RunsOn, err = decodeRunsOn(val, loc)
		case "defaults":
			j.Defaults, err = decodeDefaults(val, loc)
		case "strategy":
			j.Strategy, err = decodeStrategy(val, loc)
		case "container":
			j.Container, err = decodeContainer(val, loc)
		case "services":
			j.Services, j.ServiceOrder, err = decodeServices(val, loc)
		case "outputs":
			j.Outputs, err = decodeScalarMap(val, loc)
		case "steps":
			j.Steps, err = decodeSteps(val, loc)
		case "timeout-minutes":
			sc, e := decodeWidenedScalar(val, loc)
			j.TimeoutMinutes, err = &sc, e
		case "continue-on-error":
			sc, e := decodeWidenedScalar(val, loc)
			j.ContinueOnError, err = &sc, e
		case "concurrency":
			sc, e := decodeWidenedScalar(val, loc)
			j.Concurrency, err = &sc, e
		case "environment":
			sc, e := decodeWidenedScalarOrList(val, loc)
			j.Environment, err = &sc, e
		case "uses":
			j.Uses, err = decodeOptionalStringNode(val, loc)
		case "with":
			j.With, err = decodeScalarMap(val, loc)
		case "secrets":
			j.Secrets, err = decodeSecrets(val, loc)
		}
		if err != nil {
			return nil, err
		}
	}

	if j.Kind == NormalJob && j.Steps == nil {
		return nil, errAt(n, "jobs.%s: normal job requires 'steps'", id)
	}
	return j, nil
}

func decodeStrategy(n *yaml.Node, loc locator) (*Strategy, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "strategy: expected mapping")
	}
	s := &Strategy{}
	if _, m := mappingLookup(n, "matrix"); m != nil {
		s.Matrix = m
	}
	if _, ff := mappingLookup(n, "fail-fast"); ff != nil {
		sc, err := decodeWidenedScalar(ff, loc)
		if err != nil {
			return nil, err
		}
		s.FailFast = &sc
	}
	if _, mp := mappingLookup(n, "max-parallel"); mp != nil {
		sc, err := decodeWidenedScalar(mp, loc)
		if err != nil {
			return nil, err
		}
		s.MaxParallel = &sc
	}
	return s, nil
}

func decodeContainer(n *yaml.Node, loc locator) (*Container, error) {
	c := &Container{Location: loc(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		sn, err := decodeStringNode(n, loc)
		if err != nil {
			return nil, err
		}
		c.Image = sn
		return c, nil
	case yaml.MappingNode:
		for i := 0; i < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			var err error
			switch key.Value {
			case "image":
				c.Image, err = decodeStringNode(val, loc)
			case "credentials":
				c.Credentials, err = decodeContainerCredentials(val, loc)
			case "env":
				c.Env, err = decodeEnvMap(val, loc)
			case "options":
				c.Options, err = decodeOptionalStringNode(val, loc)
			}
			if err != nil {
				return nil, err
			}
		}
		return c, nil
	default:
		return nil, errAt(n, "container: unexpected node kind")
	}
}

func decodeContainerCredentials(n *yaml.Node, loc locator) (*ContainerCredentials, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "credentials: expected mapping")
	}
	cc := &ContainerCredentials{}
	if _, u := mappingLookup(n, "username"); u != nil {
		sc, err := decodeWidenedScalar(u, loc)
		if err != nil {
			return nil, err
		}
		cc.Username = &sc
	}
	if _, p := mappingLookup(n, "password"); p != nil {
		sc, err := decodeWidenedScalar(p, loc)
		if err != nil {
			return nil, err
		}
		cc.Password = &sc
	}
	return cc, nil
}

func decodeServices(n *yaml.Node, loc locator) (map[string]*Container, []string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nil, errAt(n, "services: expected mapping")
	}
	services := make(map[string]*Container, len(n.Content)/2)
	var order []string
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		c, err := decodeContainer(val, loc)
		if err != nil {
			return nil, nil, err
		}
		services[key.Value] = c
		order = append(order, key.Value)
	}
	return services, order, nil
}

func decodeSteps(n *yaml.Node, loc locator) ([]*Step, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errAt(n, "steps: expected sequence")
	}
	var ids = map[string]bool{}
	steps := make([]*Step, 0, len(n.Content))
	for _, item := range n.Content {
		s, err := decodeStep(item, loc)
		if err != nil {
			return nil, err
		}
		if s.ID != nil {
			if ids[s.ID.Value] {
				return nil, errAt(item, "duplicate step id %q", s.ID.Value)
			}
			ids[s.ID.Value] = true
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func decodeStep(n *yaml.Node, loc locator) (*Step, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "step: expected mapping")
	}
	s := &Step{Location: loc(n)}
	if _, usesNode := mappingLookup(n, "uses"); usesNode != nil {
		s.Kind = UsesStep
	}
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "id":
			s.ID, err = decodeOptionalStringNode(val, loc)
		case "name":
			s.Name, err = decodeOptionalStringNode(val, loc)
		case "if":
			sc, e := decodeWidenedScalar(val, loc)
			s.If, err = &sc, e
		case "env":
			s.Env, err = decodeEnvMap(val, loc)
		case "continue-on-error":
			sc, e := decodeWidenedScalar(val, loc)
			s.ContinueOnError, err = &sc, e
		case "timeout-minutes":
			sc, e := decodeWidenedScalar(val, loc)
			s.TimeoutMinutes, err = &sc, e
		case "uses":
			s.Uses, err = decodeOptionalStringNode(val, loc)
		case "with":
			s.With, err = decodeScalarMap(val, loc)
		case "run":
			s.Run, err = decodeOptionalStringNode(val, loc)
		case "shell":
			s.Shell, err = decodeOptionalStringNode(val, loc)
		case "working-directory":
			s.WorkingDirectory, err = decodeOptionalStringNode(val, loc)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func decodeEnvMap(n *yaml.Node, loc locator) (EnvMap, error) {
	e := EnvMap{Location: loc(n)}
	if n.Kind != yaml.MappingNode {
		return e, errAt(n, "env: expected mapping")
	}
	e.Entries = make(map[string]Scalar, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		sc, err := decodeWidenedScalar(val, loc)
		if err != nil {
			return e, err
		}
		e.Entries[key.Value] = sc
		e.Order = append(e.Order, key.Value)
	}
	return e, nil
}

func decodeScalarMap(n *yaml.Node, loc locator) (map[string]Scalar, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errAt(n, "expected mapping")
	}
	m := make(map[string]Scalar, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		sc, err := decodeWidenedScalar(val, loc)
		if err != nil {
			return nil, err
		}
		m[key.Value] = sc
	}
	return m, nil
}

// decodeStringNode requires n to be a true string scalar.
func decodeStringNode(n *yaml.Node, loc locator) (StringNode, error) {
	if n.Kind != yaml.ScalarNode {
		return StringNode{}, errAt(n, "expected string scalar")
	}
	if n.Tag != "" && n.Tag != "!!str" {
		return StringNode{}, errAt(n, "expected string, got %s", n.Tag)
	}
	return StringNode{Value: n.Value, Location: loc(n)}, nil
}

func decodeOptionalStringNode(n *yaml.Node, loc locator) (*StringNode, error) {
	sn, err := decodeStringNode(n, loc)
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

// decodeWidenedScalar accepts any scalar (string, bool, int, float)
// and stringifies it, per §4.2's schema-widened fields (env values,
// `if`, `continue-on-error`, credentials, etc., all of which GitHub
// Actions itself stringifies before use).
func decodeWidenedScalar(n *yaml.Node, loc locator) (Scalar, error) {
	if n.Kind != yaml.ScalarNode {
		return Scalar{}, errAt(n, "expected scalar value")
	}
	return Scalar{Value: n.Value, Tag: n.Tag, Location: loc(n)}, nil
}

// decodeWidenedScalarOrList handles fields like `needs:`/`environment:`
// that accept either a single scalar or a sequence of scalars; the
// sequence form is flattened into a comma-joined Scalar so audits have
// one representation to inspect, with Location pointing at the whole
// node.
func decodeWidenedScalarOrList(n *yaml.Node, loc locator) (Scalar, error) {
	if n.Kind == yaml.SequenceNode {
		var parts []string
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return Scalar{}, errAt(item, "expected scalar list entries")
			}
			parts = append(parts, item.Value)
		}
		return Scalar{Value: joinComma(parts), Location: loc(n)}, nil
	}
	return decodeWidenedScalar(n, loc)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
