// SPDX-License-Identifier: MIT

// Package expr implements a hand-written recursive-descent lexer and
// parser for the expression language embedded in GitHub Actions
// `${{ ... }}` template expansions (§4.3). A regex-based recognizer
// was deliberately avoided (§9 design note): `${{ }}` can appear more
// than once in a single scalar, and nested quoting inside the
// expression ("it's a ${{ 'thing' }}") defeats naive regex matching.
package expr

// NodeKind enumerates the small expression AST's node shapes.
type NodeKind int

const (
	Identifier NodeKind = iota
	Number
	StringLit
	BoolLit
	NullLit
	ArrayLit
	Member   // a.b
	Index    // a[b]
	Call     // f(a, b)
	Unary    // !a
	Binary   // a == b, a && b, ...
	Ternary  // a ? b : c
	Paren    // (a)
)

// Span is a byte range relative to the start of the *outer* scalar
// string the expression was extracted from, not relative to the
// expression text itself — so audits can report a finding location
// directly against the YAML file's byte offsets once added to the
// scalar's own Location.Start.
type Span struct {
	Start int
	End   int
}

// Node is one AST node. Not every field is populated for every Kind;
// see the comments on NodeKind above for which fields apply.
type Node struct {
	Kind NodeKind
	Span Span

	// Identifier / Member / Call
	Name string

	// Number / StringLit / BoolLit
	Value string

	// Member: Target.Name
	Target *Node

	// Index: Target[Key]
	Key *Node

	// Call: Name(Args...)
	Args []*Node

	// ArrayLit: Items
	Items []*Node

	// Unary: Op Operand
	// Binary: Left Op Right
	// Ternary: Cond ? Then : Else
	Op        string
	Operand   *Node
	Left      *Node
	Right     *Node
	Cond      *Node
	Then      *Node
	Else      *Node
}

// Path returns the dotted context path an identifier/member chain
// spells out, e.g. `github.event.issue.title` for
// Member{Target: Member{Target: Member{Target: Identifier(github),
// Name: event}, Name: issue}, Name: title}. Returns "" for any other
// node kind. Used by audits matching against the attacker-controllable
// context table.
func (n *Node) Path() string {
	switch n.Kind {
	case Identifier:
		return n.Name
	case Member:
		base := n.Target.Path()
		if base == "" {
			return ""
		}
		return base + "." + n.Name
	case Index:
		base := n.Target.Path()
		if base == "" {
			return ""
		}
		// Only literal string indices extend a static path; a
		// computed index (`steps[x].outputs`) breaks the chain.
		if n.Key.Kind == StringLit {
			return base + "." + n.Key.Value
		}
		return base + ".*"
	default:
		return ""
	}
}

// Walk calls visit for n and every descendant, depth-first.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	Walk(n.Target, visit)
	Walk(n.Key, visit)
	Walk(n.Operand, visit)
	Walk(n.Left, visit)
	Walk(n.Right, visit)
	Walk(n.Cond, visit)
	Walk(n.Then, visit)
	Walk(n.Else, visit)
	for _, a := range n.Args {
		Walk(a, visit)
	}
	for _, it := range n.Items {
		Walk(it, visit)
	}
}
