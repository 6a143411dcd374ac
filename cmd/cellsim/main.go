package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cellsim",
		Short: "Parallel agent-based simulation of randomly walking cells",
		Long: `cellsim steps a population of spherical cells through a fixed number of
discrete time steps. Each cell runs its behaviors (a momentum-smoothed
random walk, optional growth and division) once per step on a pool of
workers, and structural changes are committed at the end of every step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newReplayCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
