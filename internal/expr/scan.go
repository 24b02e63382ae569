// SPDX-License-Identifier: MIT

package expr

import "strings"

// Expression is one `${{ ... }}` occurrence found inside a larger
// scalar string, together with its parsed AST (nil if parsing failed)
// and any parse error encountered.
type Expression struct {
	// Span covers the full `${{ ... }}` delimiters, relative to the
	// scalar string passed to Scan.
	Span Span
	// Raw is the trimmed text between the delimiters.
	Raw string
	AST *Node
	Err error
}

// Scan locates every `${{ ... }}` occurrence in s and parses each one.
// It tracks single-quoted string literals so a `}}` inside a quoted
// string inside the expression ("it's a ${{ 'a}}b' }}") does not
// terminate the match early. Scan never panics and always returns,
// even for unterminated or malformed expressions; per-expression
// failures are carried on Expression.Err rather than aborting the scan.
func Scan(s string) []Expression {
	var out []Expression
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "${{")
		if start < 0 {
			break
		}
		start += i
		bodyStart := start + 3
		end, ok := findClose(s, bodyStart)
		if !ok {
			// No matching `}}`: not a valid expression, but we still
			// report it so audits/linters can flag truncation instead
			// of silently losing the text.
			out = append(out, Expression{
				Span: Span{Start: start, End: len(s)},
				Raw:  s[bodyStart:],
				Err:  &ParseError{Offset: bodyStart, Msg: "unterminated ${{ ... }} expression"},
			})
			break
		}
		raw := s[bodyStart:end]
		trimmed := strings.TrimSpace(raw)
		leadingSpace := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		node, err := Parse(trimmed)
		if node != nil {
			offsetSpan(node, bodyStart+leadingSpace)
		}
		out = append(out, Expression{
			Span: Span{Start: start, End: end + 2},
			Raw:  trimmed,
			AST:  node,
			Err:  err,
		})
		i = end + 2
	}
	return out
}

// findClose scans from pos for the `}}` that closes an expression,
// skipping over single-quoted string literals so an embedded `}}`
// inside a string doesn't terminate the scan early.
func findClose(s string, pos int) (int, bool) {
	inString := false
	for i := pos; i < len(s); i++ {
		switch {
		case inString:
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
		case s[i] == '\'':
			inString = true
		case s[i] == '}' && i+1 < len(s) && s[i+1] == '}':
			return i, true
		}
	}
	return 0, false
}

// offsetSpan shifts every span in the tree rooted at n by delta, in
// place, turning expression-relative offsets into scalar-relative ones.
func offsetSpan(n *Node, delta int) {
	Walk(n, func(m *Node) {
		m.Span.Start += delta
		m.Span.End += delta
	})
}
