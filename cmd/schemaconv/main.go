// Package main provides the entry point for the schemaconv CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/schemaconv/cmd/schemaconv/commands"
	"github.com/Sumatoshi-tech/schemaconv/pkg/version"
)

var (
	verbose bool
	quiet   bool
	noColor bool
)

func main() {
	version.InitBinaryVersion()

	// A missing .env file is fine; SCHEMACONV_* and OTEL_* may come from it.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "schemaconv",
		Short: "Migrate Sanity v2 schema files to the v3 factory form",
		Long: `schemaconv rewrites plain object-literal Sanity schemas into
defineType/defineField modules, prunes excluded field types and orphaned
fieldsets, and migrates legacy imports.

Commands:
  convert   Convert a directory of schema files
  schema    Print the config or report JSON schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "schemaconv %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
