// Command scout is the command-line client of the scouting hub.
package main

import (
	"os"

	"scouthub/pkg/cli"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version string
	commit  string
)

func main() {
	os.Exit(cli.Execute(cli.BuildInfo{Version: version, Commit: commit}))
}
