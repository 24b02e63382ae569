// SPDX-License-Identifier: MIT

// Package cli is the thin cobra front end: it parses flags, builds an
// engine.Config, and delegates every real decision to internal/engine.
// Grounded on the teacher's cmd/root.go (cobra.Command.Flags wiring,
// Execute() error handling), generalized from a single update-mode CLI
// into the full flag surface §6 names.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gha-sec/zizmor/internal/config"
	"github.com/gha-sec/zizmor/internal/engine"
	"github.com/gha-sec/zizmor/internal/finding"
	"github.com/gha-sec/zizmor/internal/logging"
	"github.com/gha-sec/zizmor/internal/report"
)

// Build information, populated at build time via -ldflags, same
// convention as the teacher's cmd.Version/Date/Commit/BuiltBy.
var (
	Version string
	Date    string
	Commit  string
	BuiltBy string
)

// Exit codes per §6.
const (
	exitClean       = 0
	exitFindings    = 1
	exitRunnerError = 2
	exitCancelled   = 3
)

var flags struct {
	offline     bool
	pedantic    bool
	format      string
	minSeverity string
	minConfidence string
	ghToken     string
	noProgress  bool
	configPath  string
	strict      bool
	verbose     bool
	include     []string
	exclude     []string
}

var rootCmd = &cobra.Command{
	Use:          "zizmor [paths...]",
	Short:        "zizmor audits GitHub Actions workflows for common security pitfalls.",
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runRoot,
}

func init() {
	rootCmd.Version = buildVersion()
	rootCmd.SetVersionTemplate(`{{printf "Version %s" .Version}}`)

	f := rootCmd.Flags()
	f.BoolVar(&flags.offline, "offline", false, "never make network calls; online-only audits are skipped")
	f.BoolVar(&flags.pedantic, "pedantic", false, "enable pedantic-only audits and stricter thresholds on others")
	f.StringVar(&flags.format, "format", "plain", "output format: plain, sarif, or json")
	f.StringVar(&flags.minSeverity, "min-severity", "informational", "minimum severity to report: informational, low, medium, high")
	f.StringVar(&flags.minConfidence, "confidence", "low", "minimum confidence to report: low, medium, high")
	f.StringVar(&flags.ghToken, "gh-token", "", "GitHub token for authenticated resolver calls (or $GH_TOKEN)")
	f.BoolVar(&flags.noProgress, "no-progress", false, "suppress progress output on stderr")
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file (or $ZIZMOR_CONFIG)")
	f.BoolVar(&flags.strict, "strict", false, "promote any runner diagnostic to a non-zero exit")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	f.StringSliceVar(&flags.include, "select", nil, "restrict the run to exactly these audit IDs")
	f.StringSliceVar(&flags.exclude, "ignore-audit", nil, "exclude these audit IDs from the run")
}

func buildVersion() string {
	if Version == "" {
		return "dev"
	}
	return fmt.Sprintf("%s (commit %s, built %s by %s)", Version, Commit, Date, BuiltBy)
}

// Execute runs the root command. Called by cmd/zizmor/main.go.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRunnerError
	}
	return lastExitCode
}

// lastExitCode carries the exit status computed inside RunE back to
// Execute, since cobra's own return value is only an error.
var lastExitCode = exitClean

func runRoot(cmd *cobra.Command, args []string) error {
	logging.New(logging.Options{Verbose: flags.verbose, NoProgress: flags.noProgress})

	format, err := report.ParseFormat(flags.format)
	if err != nil {
		lastExitCode = exitRunnerError
		return err
	}
	minSev, err := finding.ParseSeverity(flags.minSeverity)
	if err != nil {
		lastExitCode = exitRunnerError
		return err
	}
	minConf, err := finding.ParseConfidence(flags.minConfidence)
	if err != nil {
		lastExitCode = exitRunnerError
		return err
	}

	var cfgFile *config.File
	if path := config.ResolvePath(flags.configPath); path != "" {
		cfgFile, err = config.Load(path)
		if err != nil {
			lastExitCode = exitRunnerError
			return err
		}
	}

	token := flags.ghToken
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx, engine.Config{
		Paths:         args,
		Offline:       flags.offline,
		Pedantic:      flags.pedantic,
		Format:        format,
		MinSeverity:   minSev,
		MinConfidence: minConf,
		GHToken:       token,
		NoProgress:    flags.noProgress,
		Strict:        flags.strict,
		Include:       flags.include,
		Exclude:       flags.exclude,
		File:          cfgFile,
	})
	if err != nil {
		lastExitCode = exitRunnerError
		return err
	}

	if err := report.Write(os.Stdout, format, result.Findings, result.Diagnostics); err != nil {
		lastExitCode = exitRunnerError
		return fmt.Errorf("writing report: %w", err)
	}

	if result.Cancelled {
		lastExitCode = exitCancelled
		return nil
	}

	lastExitCode = report.ExitCode(result.Findings, result.Diagnostics, minSev, flags.strict)
	return nil
}
