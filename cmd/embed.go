package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/internal/ai"
	"github.com/legisgraph/legisgraph/internal/chunker"
)

// embedRetryElapsed bounds the retry budget for one embedding call during
// the bulk pass.
const embedRetryElapsed = 2 * time.Minute

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Chunk and embed paragraphs without embeddings",
	Long: `Splits every paragraph that has no chunks yet into character-budgeted
chunks, embeds them and stores the vectors. A paragraph whose embedding
fails is skipped whole, so rerunning the command picks it up again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEmbed()
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	embedder := ai.NewRetryingEmbedder(a.client, embedRetryElapsed)
	pass := chunker.NewPass(a.store, embedder, a.cfg.ProjectName,
		a.cfg.ChunkBudget, a.cfg.EmbedModel, a.cfg.EmbedRateLimit,
		a.logger.With("component", "chunker"))

	stats, err := pass.Run(ctx)
	if err != nil {
		return fmt.Errorf("embedding pass: %w", err)
	}

	a.logger.Info("embed finished",
		"paragraphs", stats.Paragraphs,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
		"dim", stats.Dim)
	return nil
}
