// SPDX-License-Identifier: MIT

// Package config loads the optional YAML configuration file named by
// --config or $ZIZMOR_CONFIG and merges it with CLI flags. Grounded on
// the teacher's decode style in internal/model: typed structs with
// explicit post-decode validation rather than a raw
// map[string]interface{} passthrough, decoded with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gha-sec/zizmor/internal/finding"
)

// IgnoreRule silences findings under a path glob, optionally scoped to
// specific audit IDs. An empty AuditIDs list silences every audit for
// matching paths.
type IgnoreRule struct {
	PathGlob string   `yaml:"path-glob"`
	AuditIDs []string `yaml:"audit-ids,omitempty"`
}

// RuleConfig is one audit's entry under the top-level `rules:` map.
type RuleConfig struct {
	Enabled         *bool             `yaml:"enabled,omitempty"`
	SeverityOverride string           `yaml:"severity-override,omitempty"`
}

// File is the decoded shape of the optional config file: a top-level
// `rules:` map of per-audit {enabled, severity-override} entries, and
// a top-level `ignore:` list of {path-glob, audit-ids} rules. An
// `ignore:` list nested inside a `rules:` entry is not read.
type File struct {
	Rules   map[string]RuleConfig `yaml:"rules"`
	Ignore  []IgnoreRule          `yaml:"ignore"`
}

// Load reads and decodes the config file at path. A missing path
// passed explicitly is an error; callers resolving the path from
// $ZIZMOR_CONFIG or a default location should check os.Stat first if
// absence should be silently tolerated.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for id, rc := range f.Rules {
		if rc.SeverityOverride != "" {
			if _, err := finding.ParseSeverity(rc.SeverityOverride); err != nil {
				return nil, fmt.Errorf("config: rule %s: %w", id, err)
			}
		}
	}
	return &f, nil
}

// ResolvePath picks the config file to load: an explicit --config flag
// value wins, then $ZIZMOR_CONFIG, otherwise no config is used.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("ZIZMOR_CONFIG")
}

// Enabled reports whether auditID is enabled per this config, given
// the registry's own default. A config entry's explicit Enabled value
// always wins; an absent entry defers to defaultEnabled.
func (f *File) Enabled(auditID string, defaultEnabled bool) bool {
	if f == nil {
		return defaultEnabled
	}
	rc, ok := f.Rules[auditID]
	if !ok || rc.Enabled == nil {
		return defaultEnabled
	}
	return *rc.Enabled
}

// SeverityOverride returns the configured severity override for
// auditID, if any.
func (f *File) SeverityOverride(auditID string) (finding.Severity, bool) {
	if f == nil {
		return finding.Unknown, false
	}
	rc, ok := f.Rules[auditID]
	if !ok || rc.SeverityOverride == "" {
		return finding.Unknown, false
	}
	sev, err := finding.ParseSeverity(rc.SeverityOverride)
	if err != nil {
		return finding.Unknown, false
	}
	return sev, true
}

// Ignores reports whether a finding at path for auditID is silenced by
// an `ignore:` entry.
func (f *File) Ignores(path, auditID string) bool {
	if f == nil {
		return false
	}
	for _, rule := range f.Ignore {
		ok, err := filepath.Match(rule.PathGlob, path)
		if err != nil || !ok {
			// also try matching just the base name, since workflow paths
			// are often given as bare filenames relative to the repo root
			if ok2, err2 := filepath.Match(rule.PathGlob, filepath.Base(path)); err2 != nil || !ok2 {
				continue
			}
		}
		if len(rule.AuditIDs) == 0 {
			return true
		}
		for _, id := range rule.AuditIDs {
			if id == auditID {
				return true
			}
		}
	}
	return false
}

// Apply rewrites findings per the config's severity overrides and
// drops any silenced by an ignore rule. Order: overrides first, then
// ignores, so an ignored finding's original severity does not affect
// whether it's dropped.
func (f *File) Apply(findings []finding.Finding) []finding.Finding {
	if f == nil {
		return findings
	}
	var out []finding.Finding
	for _, fd := range findings {
		if sev, ok := f.SeverityOverride(fd.AuditID); ok {
			fd.Severity = sev
		}
		loc, hasLoc := fd.Primary()
		if hasLoc && f.Ignores(loc.Path, fd.AuditID) {
			continue
		}
		out = append(out, fd)
	}
	return out
}
