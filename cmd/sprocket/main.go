// Package main implements the sprocket CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sprocket/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "sprocket",
	Short: "Sprocket block-to-source compiler",
	Long:  `Sprocket compiles sprite script IR into runnable script factories`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "sprocket.toml", "path to the configuration file")
	rootCmd.PersistentFlags().String("trace-level", "", "override trace level (off|warn|phase|detail|debug)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
