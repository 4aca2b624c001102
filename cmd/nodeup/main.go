// Package main is the entry point for the nodeup CLI.
//
// nodeup provisions Marzban proxy nodes: it configures a fresh server over
// SSH, registers it with the Marzban panel, and drives the whole workflow
// through an admin chat conversation.
//
// Commands: serve, nodes, validate, version.
//
// For detailed usage information, run:
//
//	nodeup --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/nodeup/cmd/nodeup/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
