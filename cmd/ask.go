package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/internal/composer"
	"github.com/legisgraph/legisgraph/internal/router"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the loaded corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "number of context rows (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := askTopK
	if topK <= 0 {
		topK = a.cfg.TopK
	}

	r := router.New(a.store, a.client, a.cfg.ProjectName, a.logger.With("component", "router"))
	res, err := r.Route(ctx, question, topK)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}

	c := composer.New(a.client, a.logger.With("component", "composer"))
	ans, err := c.Compose(ctx, question, res.Rows, topK)
	if err != nil {
		return fmt.Errorf("composing answer: %w", err)
	}

	fmt.Println(ans.Text)
	if len(ans.Citations) > 0 {
		fmt.Println()
		fmt.Printf("Viri (%s):\n", res.Route)
		for _, cit := range ans.Citations {
			fmt.Printf("  [%s člen, %d. odstavek, %s]\n",
				cit.ArticleNum, cit.ParagraphNum, cit.ParagraphIDRC)
		}
	}
	return nil
}
