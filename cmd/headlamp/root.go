package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ethria/headlamp/internal/version"
)

var (
	// configDir is the directory headlamp.yml is read from.
	configDir string

	rootCmd = &cobra.Command{
		Use:   "headlamp",
		Short: "Light markers that follow actors wearing glowing headgear.",
		Long: `headlamp keeps light markers at the feet of actors wearing glowing headgear
and removes them as the actors walk away, unequip or leave.

The engine runs against an in-memory world: "run" ticks it in real time,
"simulate" fast-forwards a scripted scenario and "validate" checks a
configuration file.`,
		SilenceUsage: true,
	}
)

// Execute runs the headlamp CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "directory containing headlamp.yml")

	rootCmd.AddCommand(runCmd, simulateCmd, validateCmd)
}
