package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docchunk",
	Short: "Document to chunk ingestion service",
	Long: `docchunk converts documents into page-attributed text chunks ready for
retrieval indexing.

Each document is converted to text by a conversion service (or the built-in
local parsers), its table of contents is located and cleaned up, and the
text is split into bounded chunks that never break a table row.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}
