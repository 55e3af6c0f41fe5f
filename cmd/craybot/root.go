package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "craybot",
	Short: "craybot is a small Discord bot for a single community server",
	Long: `craybot connects to the Discord gateway and loads a fixed set of modules:
role pings for birthday and go-live announcements, DM forwarding to the
maintainer, feedback commands and a /timestamp generator.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
