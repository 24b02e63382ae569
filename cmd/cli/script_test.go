// SPDX-License-Identifier: MIT

package cli_test

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/gha-sec/zizmor/cmd/cli"
)

// TestMain registers the zizmor binary as an in-process testscript
// command, the same pattern the teacher's cmd/script_test.go relies
// on rogpeppe/go-internal/testscript for, generalized here to avoid
// needing a pre-built binary or a live GITHUB_TOKEN: every script
// fixture runs fully offline.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"zizmor": cli.Execute,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
