// folio serves the Fulfill3D portfolio site and manages its post catalog.
package main

import (
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// Global flags
	verbose bool

	logger = log.New("folio")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Company portfolio site with a content-block blog",
		Long: `folio serves a company site: home, about, projects and a blog whose posts
are ordered sequences of heading, paragraph, code and hyperlink blocks.

Posts come from the embedded sample document, a JSON posts file, or a SQLite
catalog filled by "folio import".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DEBUG)
			} else {
				logger.SetLevel(log.INFO)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
		},
	}
}
