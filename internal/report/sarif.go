// SPDX-License-Identifier: MIT

package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/finding"
)

// SARIF 2.1.0 is a large schema; this package only models the subset
// §4.7/§6 call out: tool.driver.rules, results with ruleId/level/
// message/locations/partialFingerprints, and
// invocations[].toolExecutionNotifications for runner diagnostics. A
// dedicated SARIF library was not available anywhere in the retrieval
// pack's example repos or their dependency graphs, so this is built
// directly on encoding/json against the subset of the spec actually
// exercised by the reporter's contract.
type sarifLog struct {
	Schema  string      `json:"$schema"`
	Version string      `json:"version"`
	Runs    []sarifRun  `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool          `json:"tool"`
	Results     []sarifResult      `json:"results"`
	Invocations []sarifInvocation  `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                  `json:"id"`
	ShortDescription sarifMessage            `json:"shortDescription"`
	HelpURI          string                  `json:"helpUri,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string               `json:"ruleId"`
	Level               string               `json:"level"`
	Message             sarifMessage         `json:"message"`
	Locations           []sarifLocation      `json:"locations"`
	PartialFingerprints map[string]string    `json:"partialFingerprints,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	ByteOffset  int `json:"byteOffset"`
	ByteLength  int `json:"byteLength"`
}

type sarifInvocation struct {
	ExecutionSuccessful          bool                          `json:"executionSuccessful"`
	ToolExecutionNotifications   []sarifNotification           `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Message sarifMessage `json:"message"`
	Level   string       `json:"level"`
}

func severityToSARIFLevel(s finding.Severity) string {
	switch s {
	case finding.High:
		return "error"
	case finding.Medium:
		return "warning"
	case finding.Low, finding.Informational:
		return "note"
	default:
		return "none"
	}
}

// rulesBaseURL is the audit documentation page; each rule's helpUri is
// this URL with the audit id appended as a fragment anchor.
const rulesBaseURL = "https://github.com/gha-sec/zizmor/blob/main/docs/audits.md"

func toSARIFResults(findings []finding.Finding) []sarifResult {
	out := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		res := sarifResult{
			RuleID:  f.AuditID,
			Level:   severityToSARIFLevel(f.Severity),
			Message: sarifMessage{Text: f.Description},
		}
		for _, ann := range f.Locations {
			loc := ann.Location
			res.Locations = append(res.Locations, sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: loc.Path},
					Region: sarifRegion{
						StartLine:   loc.Line,
						StartColumn: loc.Column,
						ByteOffset:  loc.Start,
						ByteLength:  loc.End - loc.Start,
					},
				},
				Message: &sarifMessage{Text: ann.Message},
			})
		}
		if p, ok := f.Primary(); ok {
			res.PartialFingerprints = map[string]string{
				"primaryLocationLineHash": partialFingerprint(f.AuditID, p),
			}
		}
		out = append(out, res)
	}
	return out
}

// partialFingerprint derives a stable identity for a finding from the
// (audit-id, file, byte-span) triple named in §4.7. The reporter only
// sees already-extracted Finding/Location values, not the document's
// raw bytes, so the span stands in for the "surrounding text" the spec
// describes; the engine layer has the raw source and is where a
// content-addressed fingerprint would be computed if a caller needed
// one robust to line-shifting edits elsewhere in the file.
func partialFingerprint(auditID string, loc finding.Location) string {
	h := sha256.New()
	h.Write([]byte(auditID))
	h.Write([]byte{0})
	h.Write([]byte(loc.Path))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d:%d", loc.Start, loc.End)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func rulesFromFindings(findings []finding.Finding) []sarifRule {
	seen := map[string]bool{}
	var ids []string
	for _, f := range findings {
		if !seen[f.AuditID] {
			seen[f.AuditID] = true
			ids = append(ids, f.AuditID)
		}
	}
	sort.Strings(ids)
	rules := make([]sarifRule, 0, len(ids))
	for _, id := range ids {
		rules = append(rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: id},
			HelpURI:          rulesBaseURL + "#" + id,
		})
	}
	return rules
}

func writeSARIF(w io.Writer, findings []finding.Finding, diags []audit.Diagnostic) error {
	var notifications []sarifNotification
	for _, d := range diags {
		notifications = append(notifications, sarifNotification{
			Message: sarifMessage{Text: d.AuditID + ": " + d.Message},
			Level:   "warning",
		})
	}

	doc := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "zizmor",
				InformationURI: "https://github.com/gha-sec/zizmor",
				Rules:          rulesFromFindings(findings),
			}},
			Results: toSARIFResults(findings),
			Invocations: []sarifInvocation{{
				ExecutionSuccessful:        len(diags) == 0,
				ToolExecutionNotifications: notifications,
			}},
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeJSONResults(w io.Writer, findings []finding.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toSARIFResults(findings))
}
