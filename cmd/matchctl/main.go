package main

import (
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "matchctl",
		Short:        "Volunteer matching operations",
		Long:         `Score volunteers offline, run auto-match batches against the database, and issue development tokens.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(autoMatchCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}
