// Package cli implements the grove command line interface, a thin
// layer over the library packages.
package cli

import (
	"fmt"
	"os"

	"github.com/mwantia/grove"
	"github.com/mwantia/grove/log"
	"github.com/spf13/cobra"
)

var (
	rootPath string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Manage a directory collection keyed by its metadata",
	Long: "Grove manages directories whose names are derived from the attributes\n" +
		"stored inside them and provides indexing and queries over the collection.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", ".", "Workspace root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func logger() *log.Logger {
	level := log.Warn
	if verbose {
		level = log.Debug
	}
	return log.NewLogger("grove", level, "", false)
}

func workspace() (*grove.Workspace, error) {
	return grove.NewWorkspace(rootPath, grove.WithLogger(logger()))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
