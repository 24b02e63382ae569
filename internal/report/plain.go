// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"

	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/finding"
)

// writePlain renders one finding-preamble line per finding followed by
// its indented annotations, and a trailing section for runner
// diagnostics, per §4.7's "plain (one finding per line preamble plus
// indented annotations)".
func writePlain(w io.Writer, findings []finding.Finding, diags []audit.Diagnostic) error {
	for _, f := range findings {
		loc, ok := f.Primary()
		if ok {
			fmt.Fprintf(w, "%s:%d:%d: %s[%s/%s]: %s\n",
				loc.Path, loc.Line, loc.Column, f.AuditID, f.Severity, f.Confidence, f.Description)
		} else {
			fmt.Fprintf(w, "%s[%s/%s]: %s\n", f.AuditID, f.Severity, f.Confidence, f.Description)
		}
		for _, ann := range f.Locations {
			fmt.Fprintf(w, "  --> %s:%d:%d: %s\n", ann.Location.Path, ann.Location.Line, ann.Location.Column, ann.Message)
		}
		if f.Remediation != "" {
			fmt.Fprintf(w, "  help: %s\n", f.Remediation)
		}
	}
	if len(diags) > 0 {
		fmt.Fprintln(w, "diagnostics:")
		for _, d := range diags {
			fmt.Fprintf(w, "  %s: %s\n", d.AuditID, d.Message)
		}
	}
	return nil
}
