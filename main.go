// Package main is the entry point for the syncron CLI application.
// It initializes all subcommands and executes the root command.
package main

import (
	"github.com/kitzbergerg/syncron/cmd"
	_ "github.com/kitzbergerg/syncron/cmd/calc"
	_ "github.com/kitzbergerg/syncron/cmd/diff"
	_ "github.com/kitzbergerg/syncron/cmd/hash"
)

// main is the entry point of the application.
// It executes the root command which handles all CLI interactions.
func main() {
	cmd.Execute()
}
