// SPDX-License-Identifier: MIT

// Package logging configures the process-wide styled logger used for
// runner diagnostics and progress messages. Grounded on the teacher's
// utils.CreateLogger, which built a charmbracelet/log logger with
// lipgloss-styled level badges; generalized here to also respect
// NO_COLOR and a --no-progress flag, neither of which the teacher
// needed since gh-actlock always ran attended in a terminal.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the process-wide instance every package logs through.
var Logger *log.Logger

// Options configures New.
type Options struct {
	Verbose     bool
	NoProgress  bool
	NoColor     bool
	Output      io.Writer
}

// New builds and installs the package-level Logger, returning it for
// callers that want a local reference instead of reading the package
// variable.
func New(opts Options) *log.Logger {
	level := log.InfoLevel
	reportCaller := false
	reportTimestamp := false
	timeFormat := ""

	if opts.Verbose {
		level = log.DebugLevel
		reportCaller = true
		reportTimestamp = true
		timeFormat = "2006/01/02 15:04:05"
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		ReportCaller:    reportCaller,
		ReportTimestamp: reportTimestamp,
		TimeFormat:      timeFormat,
		Level:           level,
	})

	noColor := opts.NoColor || os.Getenv("NO_COLOR") != ""
	if !noColor {
		l.SetStyles(styles())
	}

	Logger = l
	log.SetDefault(l)
	return l
}

// styles mirrors the teacher's level color scheme (cyan debug, red
// fatal) and extends it to warn/error so every level is distinguishable.
func styles() *log.Styles {
	s := log.DefaultStyles()
	maxWidth := 4

	s.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString(strings.ToUpper(log.DebugLevel.String())).
		Bold(true).MaxWidth(maxWidth).Foreground(lipgloss.Color("14"))
	s.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString(strings.ToUpper(log.WarnLevel.String())).
		Bold(true).MaxWidth(maxWidth).Foreground(lipgloss.Color("11"))
	s.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString(strings.ToUpper(log.ErrorLevel.String())).
		Bold(true).MaxWidth(maxWidth).Foreground(lipgloss.Color("9"))
	s.Levels[log.FatalLevel] = lipgloss.NewStyle().
		SetString(strings.ToUpper(log.FatalLevel.String())).
		Bold(true).MaxWidth(maxWidth).Foreground(lipgloss.Color("9"))

	return s
}

// Progress logs a transient progress line at info level unless
// --no-progress suppressed it, per §6.
func Progress(noProgress bool, format string, args ...any) {
	if noProgress || Logger == nil {
		return
	}
	Logger.Infof(format, args...)
}
