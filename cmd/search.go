package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var searchTopK int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search over embedded chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(strings.Join(args, " "))
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(query string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := searchTopK
	if topK <= 0 {
		topK = a.cfg.TopK
	}

	vec, err := a.client.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	rows, err := a.store.SearchChunks(ctx, a.cfg.ProjectName, vec, topK)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(rows) == 0 {
		fmt.Println("Ni zadetkov.")
		return nil
	}
	for i, row := range rows {
		fmt.Printf("%d) [%.3f] %s člen, %d. odstavek (%s)\n%s\n\n",
			i+1, row.Score, row.ArticleNum, row.ParagraphNum, row.ParagraphIDRC, row.Text)
	}
	return nil
}
