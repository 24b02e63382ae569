// SPDX-License-Identifier: MIT

// Package loader parses a workflow or action YAML document into a
// lossless yaml.v3 node tree and attaches a byte-range Location to
// every node, the foundation every downstream finding location is
// built from. Grounded on the teacher's parser.ParseWorkflowYAML,
// which only kept line numbers for reconstructing edited `uses:`
// lines; this generalizes that into full (start,end) byte spans
// because findings need to re-quote arbitrary expressions, not just
// whole lines.
package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// Document is a parsed YAML file: the raw bytes (so callers can
// re-quote any span), a line-start index for byte-offset math, and the
// root node of the tree.
type Document struct {
	Path      string
	Raw       []byte
	Root      *yaml.Node
	lineStart []int // byte offset of the start of each 1-based line
}

// Kind reports whether a document looks like a workflow (`jobs:` at
// top level) or an action definition (`runs:` at top level), per §6's
// "Input files" list. Empty documents report KindEmpty.
type Kind int

const (
	KindUnknown Kind = iota
	KindWorkflow
	KindAction
	KindEmpty
)

// Load parses data (the contents of path) into a Document. An empty
// file is not an error — §4.1 requires the loader to be tolerant of
// empty inputs and let the caller decide what to do with them.
func Load(path string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return &Document{Path: path, Raw: data}, nil
	}

	var root yaml.Node
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("error parsing YAML file %s: %w", path, err)
	}

	doc := &Document{Path: path, Raw: data, Root: &root}
	doc.indexLines()
	if err := checkDuplicateKeys(&root); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Kind reports the document shape, consulting the top-level mapping
// keys of the first document content node.
func (d *Document) Kind() Kind {
	if d.Root == nil || len(d.Root.Content) == 0 {
		return KindEmpty
	}
	top := d.Root.Content[0]
	if top.Kind != yaml.MappingNode {
		return KindUnknown
	}
	for i := 0; i < len(top.Content); i += 2 {
		switch top.Content[i].Value {
		case "jobs":
			return KindWorkflow
		case "runs":
			return KindAction
		}
	}
	return KindUnknown
}

// indexLines precomputes the byte offset of the start of every line in
// Raw so byteOffset can translate a yaml.Node's (Line,Column) into a
// byte offset without rescanning the buffer on every call.
func (d *Document) indexLines() {
	d.lineStart = make([]int, 1, 64) // line numbers are 1-based; index 0 unused
	d.lineStart = append(d.lineStart, 0)
	for i, b := range d.Raw {
		if b == '\n' {
			d.lineStart = append(d.lineStart, i+1)
		}
	}
}

// byteOffset converts a 1-based (line, column) pair, as reported by
// yaml.v3, into a 0-based byte offset into Raw. Column is a rune
// count within the line for yaml.v3, so this walks runes rather than
// bytes within the line to stay correct on non-ASCII content.
func (d *Document) byteOffset(line, column int) int {
	if line < 1 || line >= len(d.lineStart) {
		return 0
	}
	start := d.lineStart[line]
	if column <= 1 {
		return start
	}
	rest := d.Raw[start:]
	col := 1
	for i, r := range string(rest) {
		if col == column {
			return start + i
		}
		col++
		_ = r
	}
	return len(d.Raw)
}

// NodeLocation returns the byte-range Location of a scalar node's
// value. For scalar nodes the end offset is computed from the decoded
// value's length, which is exact for unquoted/plain scalars and a
// reasonable approximation for quoted ones (the span still starts and
// ends within the original quoted text).
func (d *Document) NodeLocation(n *yaml.Node) finding.Location {
	start := d.byteOffset(n.Line, n.Column)
	end := start + len(n.Value)
	if n.Style == yaml.DoubleQuotedStyle || n.Style == yaml.SingleQuotedStyle {
		end += 2
	}
	if end > len(d.Raw) {
		end = len(d.Raw)
	}
	return finding.Location{
		Path:   d.Path,
		Start:  start,
		End:    end,
		Line:   n.Line,
		Column: n.Column,
	}
}

// LineComment returns the text of a `#...` comment that trails n on
// its own line, or that appears as a standalone comment on the line
// immediately above it. Suppression lookup does not use it: the engine
// calls CommentFor, which scans the raw bytes instead.
func (d *Document) LineComment(n *yaml.Node) (string, bool) {
	if n.LineComment != "" {
		return strings.TrimSpace(strings.TrimPrefix(n.LineComment, "#")), true
	}
	if n.HeadComment != "" {
		lines := strings.Split(n.HeadComment, "\n")
		last := strings.TrimSpace(lines[len(lines)-1])
		return strings.TrimPrefix(last, "#"), true
	}
	return "", false
}

// checkDuplicateKeys rejects mappings with repeated keys, per §4.1
// ("Duplicate keys are an error"). yaml.v3 silently takes the last
// value for a dup key when decoding into a struct, so this must walk
// the raw node tree rather than rely on Unmarshal erroring out.
func checkDuplicateKeys(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := checkDuplicateKeys(c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		seen := make(map[string]int, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind == yaml.ScalarNode {
				if prevLine, ok := seen[key.Value]; ok {
					return fmt.Errorf("duplicate key %q at line %d (first seen at line %d)", key.Value, key.Line, prevLine)
				}
				seen[key.Value] = key.Line
			}
			if err := checkDuplicateKeys(n.Content[i+1]); err != nil {
				return err
			}
		}
	}
	return nil
}
