// SPDX-License-Identifier: MIT

// Package model decodes the generic, span-tracked YAML tree produced
// by internal/loader into the typed workflow/action structures of
// spec §3. Where the teacher's parser.Workflow/Job/Step used `any` for
// every polymorphic field and lost the underlying yaml.Node once
// gopkg.in/yaml.v3 unmarshaled into it, this package decodes by
// walking yaml.Node trees directly so every leaf keeps its byte span,
// and polymorphic fields become tagged variants (Triggers, RunsOn,
// Permissions, Secrets) with explicit constructors instead of bare
// `any`, per design note §9.
package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// Scalar is a span-tracked leaf value. Most "permissive" fields in the
// GitHub Actions schema (If, Needs, TimeoutMinutes, ContinueOnError,
// Environment, Outputs, ...) accept either a literal or a `${{ }}`
// expression string, so they are modeled as Scalar rather than bespoke
// Go types: callers that need the raw text use Value, callers that
// need its provenance use Location.
type Scalar struct {
	Value    string
	Tag      string // yaml.v3 resolved tag, e.g. "!!str", "!!bool", "!!int"
	Location finding.Location
}

// IsExpression reports whether the scalar is (or contains) a `${{ }}`
// template expression, a quick filter before invoking the full
// internal/expr parser.
func (s Scalar) IsExpression() bool {
	return s.Value != "" && containsExpr(s.Value)
}

// StringNode is a Scalar that was decoded where the schema requires a
// true string (not a bool/int coerced to text), per §4.2's "Any
// true/false/number that must be a string is rejected unless the
// schema explicitly widens."
type StringNode struct {
	Value    string
	Location finding.Location
}

// EnvMap is an ordered env block; GitHub Actions coerces bool/number
// env values to their text form, so these widen rather than reject.
type EnvMap struct {
	Entries  map[string]Scalar
	Order    []string
	Location finding.Location
}

// Lookup returns the scalar for key and whether it was present.
func (e EnvMap) Lookup(key string) (Scalar, bool) {
	if e.Entries == nil {
		return Scalar{}, false
	}
	v, ok := e.Entries[key]
	return v, ok
}

// Workflow is the top-level decoded document, §3.
type Workflow struct {
	Path        string
	Name        *StringNode
	RunName     *StringNode
	On          Triggers
	Permissions Permissions
	Env         EnvMap
	Defaults    *Defaults
	Concurrency *Scalar
	Jobs        map[string]*Job
	JobOrder    []string
	Location    finding.Location
}

// Defaults models `defaults:`.
type Defaults struct {
	Run      *RunDefaults
	Location finding.Location
}

// RunDefaults models `defaults.run:`.
type RunDefaults struct {
	Shell            *StringNode
	WorkingDirectory *StringNode
}

// JobKind distinguishes a normal job from a reusable-workflow call,
// §3's "Job. Either a normal job or a reusable-workflow call."
type JobKind int

const (
	NormalJob JobKind = iota
	ReusableCallJob
)

// Job models one entry of `jobs:`.
type Job struct {
	ID       string
	Kind     JobKind
	Name     *StringNode
	Needs    *Scalar
	If       *Scalar
	Location finding.Location

	Permissions Permissions
	Env         EnvMap

	// Normal-job fields.
	RunsOn          RunsOn
	Defaults        *Defaults
	Strategy        *Strategy
	Container       *Container
	Services        map[string]*Container
	ServiceOrder    []string
	Outputs         map[string]Scalar
	Steps           []*Step
	TimeoutMinutes  *Scalar
	ContinueOnError *Scalar
	Concurrency     *Scalar
	Environment     *Scalar

	// Reusable-call fields.
	Uses    *StringNode
	With    map[string]Scalar
	Secrets Secrets
}

// Strategy models `strategy:`.
type Strategy struct {
	Matrix      *yaml.Node // kept raw: matrix shapes are open-ended and not audited structurally
	FailFast    *Scalar
	MaxParallel *Scalar
}

// Container models `container:` or a `services.*` entry.
type Container struct {
	Image       StringNode
	Credentials *ContainerCredentials
	Env         EnvMap
	Options     *StringNode
	Location    finding.Location
}

// ContainerCredentials models `container.credentials:`.
type ContainerCredentials struct {
	Username *Scalar
	Password *Scalar
}

// StepKind distinguishes a uses-step from a run-step, §3.
type StepKind int

const (
	RunStep StepKind = iota
	UsesStep
)

// Step models one entry of `jobs.<id>.steps`.
type Step struct {
	Kind             StepKind
	ID               *StringNode
	Name             *StringNode
	If               *Scalar
	Env              EnvMap
	ContinueOnError  *Scalar
	TimeoutMinutes   *Scalar
	Location         finding.Location

	// UsesStep fields.
	Uses *StringNode
	With map[string]Scalar

	// RunStep fields.
	Run              *StringNode
	Shell            *StringNode
	WorkingDirectory *StringNode
}

func mappingLookup(n *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i], n.Content[i+1]
		}
	}
	return nil, nil
}

func errAt(n *yaml.Node, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("line %d: %s", n.Line, msg)
}
