// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/finding"
)

func sampleFindings() []finding.Finding {
	return []finding.Finding{
		{
			AuditID:     "unpinned-uses",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceHigh,
			Description: "action is not pinned to a full-length commit SHA",
			Locations: []finding.Annotation{
				{Location: finding.Location{Path: "b.yml", Start: 10, End: 20, Line: 2, Column: 3}, Message: "uses actions/checkout@v4"},
			},
			Remediation: "pin to a commit SHA",
		},
		{
			AuditID:     "dangerous-triggers",
			Severity:    finding.High,
			Confidence:  finding.ConfidenceHigh,
			Description: "pull_request_target with unsafe checkout",
			Locations: []finding.Annotation{
				{Location: finding.Location{Path: "a.yml", Start: 0, End: 5, Line: 1, Column: 1}, Message: "on: pull_request_target"},
			},
		},
		{
			AuditID:     "artipacked",
			Severity:    finding.Medium,
			Confidence:  finding.ConfidenceMedium,
			Description: "checkout persists credentials with artifact upload in job",
			Locations: []finding.Annotation{
				{Location: finding.Location{Path: "a.yml", Start: 50, End: 60, Line: 4, Column: 1}, Message: "actions/checkout@v4"},
			},
		},
	}
}

func TestSortCanonicalOrder(t *testing.T) {
	findings := sampleFindings()
	Sort(findings)

	var got []string
	for _, f := range findings {
		got = append(got, f.AuditID)
	}
	// a.yml:0 (dangerous-triggers) < a.yml:50 (artipacked) < b.yml:10 (unpinned-uses)
	assert.Equal(t, []string{"dangerous-triggers", "artipacked", "unpinned-uses"}, got)
}

func TestExitCode(t *testing.T) {
	findings := sampleFindings()

	assert.Equal(t, 1, ExitCode(findings, nil, finding.Low, false))
	assert.Equal(t, 0, ExitCode(findings, nil, finding.High+1, false))

	diags := []audit.Diagnostic{{AuditID: "ref-confusion", Message: "offline, skipped"}}
	assert.Equal(t, 2, ExitCode(nil, diags, finding.Low, true))
	assert.Equal(t, 0, ExitCode(nil, diags, finding.Low, false))
}

func TestWritePlain(t *testing.T) {
	findings := sampleFindings()
	Sort(findings)
	diags := []audit.Diagnostic{{AuditID: "impostor-commit", Message: "skipped: offline mode"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPlain, findings, diags))

	out := buf.String()
	assert.Contains(t, out, "a.yml:1:1: dangerous-triggers[high/high]")
	assert.Contains(t, out, "  --> a.yml:1:1: on: pull_request_target")
	assert.Contains(t, out, "  help: pin to a commit SHA")
	assert.Contains(t, out, "diagnostics:")
	assert.Contains(t, out, "  impostor-commit: skipped: offline mode")
}

func TestWriteSARIF(t *testing.T) {
	findings := sampleFindings()
	Sort(findings)
	diags := []audit.Diagnostic{{AuditID: "impostor-commit", Message: "skipped: offline mode"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatSARIF, findings, diags))

	var doc sarifLog
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "zizmor", run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, 3)
	assert.Equal(t, "artipacked", run.Tool.Driver.Rules[0].ID)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "dangerous-triggers", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "warning", run.Results[1].Level)
	require.Len(t, run.Results[0].Locations, 1)
	region := run.Results[0].Locations[0].PhysicalLocation.Region
	assert.Equal(t, 1, region.StartLine)
	assert.Equal(t, 0, region.ByteOffset)
	assert.Equal(t, 5, region.ByteLength)
	assert.NotEmpty(t, run.Results[0].PartialFingerprints["primaryLocationLineHash"])

	require.Len(t, run.Invocations, 1)
	assert.False(t, run.Invocations[0].ExecutionSuccessful)
	require.Len(t, run.Invocations[0].ToolExecutionNotifications, 1)
	assert.True(t, strings.Contains(run.Invocations[0].ToolExecutionNotifications[0].Message.Text, "impostor-commit"))
}

func TestWriteJSONResultsIsBareArray(t *testing.T) {
	findings := sampleFindings()
	Sort(findings)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, findings, nil))

	var results []sarifResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "dangerous-triggers", results[0].RuleID)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("sarif")
	require.NoError(t, err)
	assert.Equal(t, FormatSARIF, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPlain, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestFingerprintStableAcrossRuns(t *testing.T) {
	loc := finding.Location{Path: "a.yml", Start: 0, End: 5}
	a := partialFingerprint("dangerous-triggers", loc)
	b := partialFingerprint("dangerous-triggers", loc)
	assert.Equal(t, a, b)

	other := partialFingerprint("artipacked", loc)
	assert.NotEqual(t, a, other)
}
