// ABOUTME: Entry point for the lethe CLI — loads .env, then dispatches to cobra subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	loadDotEnvAuto()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
