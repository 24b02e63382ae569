// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/loader"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/resolver"
)

func mustWorkflow(t *testing.T, yamlText string) *model.Workflow {
	t.Helper()
	doc, err := loader.Load("workflow.yml", []byte(yamlText))
	require.NoError(t, err)
	w, err := model.DecodeWorkflow(doc)
	require.NoError(t, err)
	return w
}

func auditIDs(fs []finding.Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.AuditID)
	}
	return out
}

func TestScenarioDangerousTriggerWithUnprotectedCheckout(t *testing.T) {
	w := mustWorkflow(t, `
on: pull_request_target
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
`)
	in := Input{Path: "workflow.yml", Workflow: w}
	// No --pedantic: the scenario in §8 fires artipacked in default mode,
	// since a credential-persisting checkout is flagged regardless of
	// whether an upload-artifact step correlates with it (upload only
	// affects confidence, not whether the finding fires at all).
	findings, diags := Run(context.Background(), in, nil, Options{})
	assert.Empty(t, diags)
	assert.Contains(t, auditIDs(findings), "dangerous-triggers")
	assert.Contains(t, auditIDs(findings), "artipacked")

	for _, f := range findings {
		if f.AuditID == "artipacked" {
			assert.Equal(t, finding.ConfidenceLow, f.Confidence)
		}
	}
}

func TestScenarioTemplateInjection(t *testing.T) {
	w := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo "${{ github.event.issue.title }}"
`)
	findings, err := TemplateInjection(context.Background(), Input{Workflow: w}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, finding.ConfidenceHigh, findings[0].Confidence)
	assert.Equal(t, "github.event.issue.title", findings[0].Locations[0].Message)
}

func TestScenarioUnpinnedUses(t *testing.T) {
	tests := []struct {
		name     string
		uses     string
		pedantic bool
		want     bool
	}{
		{name: "no_ref", uses: "actions/checkout", want: true},
		{name: "branch_pedantic", uses: "actions/checkout@main", pedantic: true, want: true},
		{name: "branch_default", uses: "actions/checkout@main", want: false},
		{name: "hash_pinned", uses: "actions/checkout@11bd71901bbe5b1630ceea73d27597364c9af683", pedantic: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustWorkflow(t, "on: push\njobs:\n  build:\n    runs-on: ubuntu-latest\n    steps:\n      - uses: "+tt.uses+"\n")
			ctx := context.WithValue(context.Background(), pedanticKey, tt.pedantic)
			findings, err := UnpinnedUses(ctx, Input{Workflow: w}, nil)
			require.NoError(t, err)
			if tt.want {
				assert.NotEmpty(t, findings)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestScenarioHardcodedContainerCredentials(t *testing.T) {
	withLiteral := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    container:
      image: example.com/image
      credentials:
        username: me
        password: hackme
    steps:
      - run: echo hi
`)
	findings, err := HardcodedContainerCredentials(context.Background(), Input{Workflow: withLiteral}, nil)
	require.NoError(t, err)
	assert.Len(t, findings, 1)

	withSecret := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    container:
      image: example.com/image
      credentials:
        username: me
        password: ${{ secrets.REGISTRY_PASSWORD }}
    steps:
      - run: echo hi
`)
	findings, err = HardcodedContainerCredentials(context.Background(), Input{Workflow: withSecret}, nil)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestScenarioInsecureCommands(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "true", value: "true", want: true},
		{name: "false", value: "false", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
        env:
          ACTIONS_ALLOW_UNSECURE_COMMANDS: "`+tt.value+`"
`)
			findings, err := InsecureCommands(context.Background(), Input{Workflow: w}, nil)
			require.NoError(t, err)
			if tt.want {
				assert.Len(t, findings, 1)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestAuditIndependence(t *testing.T) {
	w := mustWorkflow(t, `
on: pull_request_target
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: echo "${{ github.event.issue.title }}"
`)
	in := Input{Workflow: w}
	both, _ := Run(context.Background(), in, nil, Options{Pedantic: true, Include: []string{"dangerous-triggers", "template-injection"}})
	onlyA, _ := Run(context.Background(), in, nil, Options{Pedantic: true, Include: []string{"dangerous-triggers"}})
	onlyB, _ := Run(context.Background(), in, nil, Options{Pedantic: true, Include: []string{"template-injection"}})

	union := auditIDs(onlyA)
	union = append(union, auditIDs(onlyB)...)
	assert.ElementsMatch(t, union, auditIDs(both))
	assert.NotEmpty(t, onlyA)
	assert.NotEmpty(t, onlyB)
}

func TestArtipackedConfidenceCorrelatesWithUpload(t *testing.T) {
	withUpload := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/upload-artifact@v4
`)
	findings, err := Artipacked(context.Background(), Input{Workflow: withUpload}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, finding.ConfidenceMedium, findings[0].Confidence)

	withoutUpload := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
`)
	findings, err = Artipacked(context.Background(), Input{Workflow: withoutUpload}, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, finding.ConfidenceLow, findings[0].Confidence)

	persistFalse := mustWorkflow(t, `
on: push
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          persist-credentials: false
`)
	findings, err = Artipacked(context.Background(), Input{Workflow: persistFalse}, nil)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestRunnerIsolatesPanickingAudit(t *testing.T) {
	registryBackup := Registry
	defer func() { Registry = registryBackup }()
	Registry = append([]Audit{}, Registry...)
	Registry = append(Registry, Audit{
		ID:             "test-panicker",
		Scope:          ScopeBoth,
		DefaultEnabled: true,
		Run: func(context.Context, Input, *resolver.Client) ([]finding.Finding, error) {
			panic("boom")
		},
	})
	w := mustWorkflow(t, "on: push\njobs:\n  build:\n    runs-on: ubuntu-latest\n    steps: []\n")
	_, diags := Run(context.Background(), Input{Workflow: w}, nil, Options{})
	found := false
	for _, d := range diags {
		if d.AuditID == "test-panicker" {
			found = true
		}
	}
	assert.True(t, found)
}
