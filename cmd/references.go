package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/internal/reference"
)

var referencesCmd = &cobra.Command{
	Use:   "references",
	Short: "Extract cross-references from the loaded corpus",
	Long: `Scans every paragraph, point and indent in the project for article
citations ("10.a člen", "drugi odstavek 52. člena") and materializes them as
reference edges. Citations whose target is not in the graph are kept as
dangling references. Rerunning is a no-op merge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReferences()
	},
}

func init() {
	rootCmd.AddCommand(referencesCmd)
}

func runReferences() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ext := reference.New(a.store, a.cfg.ProjectName, a.cfg.ReferenceWindow,
		a.logger.With("component", "reference"))

	stats, err := ext.Run(ctx)
	if err != nil {
		return fmt.Errorf("extracting references: %w", err)
	}

	a.logger.Info("references finished",
		"references", stats.References,
		"resolved", stats.Resolved,
		"dangling", stats.Dangling,
		"skipped", stats.Skipped)
	return nil
}
