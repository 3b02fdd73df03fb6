// Package cmd wires the legisgraph CLI: batch import passes and the HTTP
// retrieval server.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	debugLogs bool
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "legisgraph",
	Short: "legisgraph - knowledge-graph retrieval over structured legal text",
	Long: `legisgraph parses semi-structured legal and educational documents into a
property graph, chunks and embeds paragraph text, and answers questions
through hybrid retrieval with grounded citations.

Typical pipeline:

  legisgraph import --file zakon.html
  legisgraph sections --file zakon.html --npb 22
  legisgraph references
  legisgraph embed
  legisgraph serve`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log in JSON format")
}
