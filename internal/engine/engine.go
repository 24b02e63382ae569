// SPDX-License-Identifier: MIT

// Package engine wires the loader, model, audit runner, and reporter
// together for one or many input files, and is the one package that
// knows about all of them. The CLI layer is a thin cobra front end
// over this package, per §1's "parses flags, builds an engine.Config,
// and delegates every real decision to the internal/engine package."
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gha-sec/zizmor/internal/advisory"
	"github.com/gha-sec/zizmor/internal/audit"
	"github.com/gha-sec/zizmor/internal/config"
	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/loader"
	"github.com/gha-sec/zizmor/internal/logging"
	"github.com/gha-sec/zizmor/internal/model"
	"github.com/gha-sec/zizmor/internal/report"
	"github.com/gha-sec/zizmor/internal/resolver"
)

// Config bundles everything a run needs, built by the CLI from flags
// and an optional config file per §6.
type Config struct {
	Paths       []string
	Offline     bool
	Pedantic    bool
	Format      report.Format
	MinSeverity finding.Severity
	MinConfidence finding.Confidence
	GHToken     string
	NoProgress  bool
	Strict      bool
	Include     []string
	Exclude     []string
	File        *config.File

	// MaxParallelInputs bounds how many input files are audited
	// concurrently, per §5's "bounded parallelism... per-input audit
	// execution when multiple inputs are provided". Zero means a
	// sensible default.
	MaxParallelInputs int
}

// Result is everything a run produced, ready for report.Write.
type Result struct {
	Findings    []finding.Finding
	Diagnostics []audit.Diagnostic
	// Cancelled reports whether the run was aborted by context
	// cancellation before all inputs finished, per §6's exit code 3.
	Cancelled bool
}

func init() {
	audit.SetAdvisoryClientFactory(func(res *resolver.Client) advisory.Client {
		if res == nil || res.Offline() {
			return advisory.Offline()
		}
		return advisory.New(res.GitHubClient())
	})
}

// Run discovers input files from cfg.Paths, audits each, and returns
// the combined, sorted, config-filtered result.
func Run(ctx context.Context, cfg Config) (Result, error) {
	files, err := discoverInputs(cfg.Paths)
	if err != nil {
		return Result{}, fmt.Errorf("engine: discovering inputs: %w", err)
	}

	res, err := resolver.New(cfg.Offline, resolver.WithToken(cfg.GHToken))
	if err != nil {
		return Result{}, fmt.Errorf("engine: building resolver client: %w", err)
	}

	opts := audit.Options{
		Pedantic: cfg.Pedantic,
		Offline:  cfg.Offline,
		Include:  cfg.Include,
		Exclude:  append(append([]string{}, cfg.Exclude...), configDisabledAudits(cfg.File)...),
	}

	limit := cfg.MaxParallelInputs
	if limit <= 0 {
		limit = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		allFindings []finding.Finding
		allDiags    []audit.Diagnostic
		docs        = make(map[string]*loader.Document, len(files))
	)
	results := make([]fileAuditOut, len(files))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			pf := auditFile(gctx, path, res, opts)
			results[i] = pf
			return nil
		})
	}

	waitErr := g.Wait()
	cancelled := ctx.Err() != nil

	for _, pf := range results {
		if pf.doc == nil && pf.err == nil {
			continue // slot never ran, e.g. cancelled before its goroutine started
		}
		if pf.err != nil {
			allDiags = append(allDiags, audit.Diagnostic{AuditID: "loader", Message: pf.err.Error()})
			continue
		}
		docs[pf.doc.Path] = pf.doc
		allFindings = append(allFindings, pf.findings...)
		allDiags = append(allDiags, pf.diags...)
	}

	allFindings = finding.ApplySuppressions(allFindings, func(path string, line int) (string, bool) {
		doc, ok := docs[path]
		if !ok {
			return "", false
		}
		return doc.CommentFor(line)
	})

	allFindings = cfg.File.Apply(allFindings)
	allFindings = filterByThreshold(allFindings, cfg.MinSeverity, cfg.MinConfidence)

	report.Sort(allFindings)

	if waitErr != nil && cancelled {
		logging.Progress(cfg.NoProgress, "run cancelled: %v", waitErr)
		return Result{Findings: allFindings, Diagnostics: allDiags, Cancelled: true}, nil
	}

	return Result{Findings: allFindings, Diagnostics: allDiags}, nil
}

// configDisabledAudits returns the IDs of every registry audit that
// file's rules: block turns off, so Run can fold them into
// audit.Options.Exclude. This is the only place config-driven
// enablement (as opposed to severity overrides and ignore globs,
// which config.File.Apply handles after the fact) can take effect, since
// a disabled audit must not run at all rather than have its findings
// filtered out afterward.
func configDisabledAudits(file *config.File) []string {
	if file == nil {
		return nil
	}
	var out []string
	for _, a := range audit.Registry {
		if !file.Enabled(a.ID, a.DefaultEnabled) {
			out = append(out, a.ID)
		}
	}
	return out
}

type fileAuditOut struct {
	findings []finding.Finding
	diags    []audit.Diagnostic
	doc      *loader.Document
	err      error
}

// auditFile loads, decodes, and audits a single input file.
func auditFile(ctx context.Context, path string, res *resolver.Client, opts audit.Options) fileAuditOut {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileAuditOut{err: fmt.Errorf("reading %s: %w", path, err)}
	}
	doc, err := loader.Load(path, data)
	if err != nil {
		return fileAuditOut{err: err}
	}
	if doc.Root == nil {
		return fileAuditOut{doc: doc}
	}

	in := audit.Input{Path: path}
	switch doc.Kind() {
	case loader.KindWorkflow:
		wf, err := model.DecodeWorkflow(doc)
		if err != nil {
			return fileAuditOut{doc: doc, err: err}
		}
		in.Workflow = wf
	case loader.KindAction:
		act, err := model.DecodeAction(doc)
		if err != nil {
			return fileAuditOut{doc: doc, err: err}
		}
		in.Action = act
	default:
		return fileAuditOut{doc: doc}
	}

	findings, diags := audit.Run(ctx, in, res, opts)
	return fileAuditOut{findings: findings, diags: diags, doc: doc}
}

// discoverInputs expands directories into the workflow/action files
// they contain, per §6's "Input files" list, and passes individual
// files through as given.
func discoverInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if strings.ContainsRune(p, '\x00') {
			return nil, fmt.Errorf("invalid path %q: contains null byte", p)
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := walkWorkflowDir(p)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	sort.Strings(out)
	return out, nil
}

func walkWorkflowDir(root string) ([]string, error) {
	var out []string
	wfDir := filepath.Join(root, ".github", "workflows")
	if info, err := os.Stat(wfDir); err == nil && info.IsDir() {
		entries, err := os.ReadDir(wfDir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", wfDir, err)
		}
		for _, e := range entries {
			if isYAMLFile(e.Name()) {
				out = append(out, filepath.Join(wfDir, e.Name()))
			}
		}
	}
	for _, name := range []string{"action.yml", "action.yaml"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			out = append(out, filepath.Join(root, name))
		}
	}
	return out, nil
}

func isYAMLFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yml" || ext == ".yaml"
}

func filterByThreshold(findings []finding.Finding, minSev finding.Severity, minConf finding.Confidence) []finding.Finding {
	var out []finding.Finding
	for _, f := range findings {
		if f.Severity < minSev {
			continue
		}
		if f.Confidence < minConf {
			continue
		}
		out = append(out, f)
	}
	return out
}
