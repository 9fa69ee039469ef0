// Package cmd contains the CLI commands for spectractl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose bool
	output  string
)

// defaultDBPath can be overridden with the SPECTRAOPS_DB_PATH environment
// variable so commands do not need --db on every invocation.
var defaultDBPath = "spectraops.db"

func init() {
	if envPath := os.Getenv("SPECTRAOPS_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spectractl",
	Short: "SpectraOps admin tool",
	Long: `spectractl manages a SpectraOps deployment directly through its
database file. It is intended for system administrators working outside
the dashboard, for example to bootstrap the first user or to rotate a
leaked API key.

Examples:
  # Create the first dashboard user
  spectractl user create --email admin@example.com

  # List projects owned by a user
  spectractl project list --owner admin@example.com

  # Rotate a project's API key
  spectractl project rotate-key --id <project-id> --owner admin@example.com

  # Delete error events older than 30 days
  spectractl events prune --days 30`,
	// Show help by default
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
