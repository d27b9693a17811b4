// ABOUTME: Root cobra command wiring for the lethe CLI.
package main

import (
	"github.com/spf13/cobra"
)

// version is set by the build process. Defaults to "dev" for local builds.
var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lethe",
		Short: "lethe — a persistent, emotionally-aware personal assistant runtime",
		Long: `lethe runs a principal actor that chats with you, an amygdala heartbeat that
watches for salient signals between turns, and a hippocampus analyzer that decides
when memory recall is worth the context cost.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newSetupCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
