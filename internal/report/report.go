// SPDX-License-Identifier: MIT

// Package report formats a sorted list of findings as plain text,
// SARIF 2.1.0, or the bare SARIF results array as JSON, and derives
// the run's exit status from the findings plus any runner diagnostics.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/finding"
)

// Format selects the output encoding.
type Format int

const (
	FormatPlain Format = iota
	FormatSARIF
	FormatJSON
)

// ParseFormat converts a --format flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "plain", "":
		return FormatPlain, nil
	case "sarif":
		return FormatSARIF, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatPlain, fmt.Errorf("unknown output format %q", s)
	}
}

// Sort orders findings canonically: (file, primary span start,
// audit-id), per §4.7 and the determinism property in §8.
func Sort(findings []finding.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return finding.Less(findings[i], findings[j])
	})
}

// ExitCode computes the CLI's exit status from the final finding set,
// diagnostics, a severity floor, and whether --strict promotes runner
// diagnostics to a failing exit.
func ExitCode(findings []finding.Finding, diags []audit.Diagnostic, minSeverity finding.Severity, strict bool) int {
	hasFindings := false
	for _, f := range findings {
		if f.Severity >= minSeverity {
			hasFindings = true
			break
		}
	}
	// strict promotes a runner diagnostic above a plain findings exit,
	// since an unreliable run is a worse outcome than a reliable one
	// that simply found something.
	if strict && len(diags) > 0 {
		return 2
	}
	if hasFindings {
		return 1
	}
	return 0
}

// Write renders findings (already filtered and sorted) and any runner
// diagnostics in the requested format.
func Write(w io.Writer, format Format, findings []finding.Finding, diags []audit.Diagnostic) error {
	switch format {
	case FormatSARIF:
		return writeSARIF(w, findings, diags)
	case FormatJSON:
		return writeJSONResults(w, findings)
	default:
		return writePlain(w, findings, diags)
	}
}
