package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/multical/internal/config"
)

// rootCmd represents the base command for the multical application
var rootCmd = &cobra.Command{
	Use:   "multical",
	Short: "One calendar view across several Google accounts",
	Long: `multical answers calendar questions across several Google accounts at once.
Calendars shared between accounts are listed once and every request is routed
to the account with the best access to each calendar.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A CLI to manage accounts and inspect the unified calendar list`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configPath is the --config flag shared by all commands.
var configPath string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "multical version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the YAML configuration file. Can also use MULTICAL_CONFIG env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
