// Package cmd provides the command-line interface for Shiba.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shiba",
	Short: "Shiba CLI tool can run the bundled example simulations and inspect recorded waves.",
	Long: `Shiba CLI tool can run the bundled example simulations and inspect recorded waves. ` +
		`Use "run" to execute a simulation and "waves" to list the signal changes ` +
		`stored in a recording database.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
