package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"census/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "census",
	Short: "Diagnostics census and reporting tool",
	Long:  `Census aggregates analyzer diagnostic streams into a per-package tabular report`,
}

// main initializes the CLI by setting the command version, registering
// subcommands and persistent flags, and then executes the root command.
// If command execution returns an error, the process exits with status
// code 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of ingest problems to keep per stream")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal checks whether the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
