// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/gha-sec/zizmor/cmd/cli"
)

func main() {
	os.Exit(cli.Execute())
}
