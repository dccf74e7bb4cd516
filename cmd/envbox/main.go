// Package main is the entry point for the envbox CLI.
//
// The binary provisions sandbox environments from declarative manifests.
// All functionality lives in internal/cli, which defines the cobra
// commands.
package main

import (
	"github.com/envbox-dev/envbox/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// During development they default to "dev", "none", and "unknown".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
