package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/api"
	"github.com/legisgraph/legisgraph/internal/composer"
	"github.com/legisgraph/legisgraph/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP retrieval API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	srv := api.NewServer(api.Deps{
		Router:     router.New(a.store, a.client, a.cfg.ProjectName, logger.With("component", "router")),
		Composer:   composer.New(a.client, logger.With("component", "composer")),
		Store:      a.store,
		Embedder:   a.client,
		Pool:       a.pool,
		Project:    a.cfg.ProjectName,
		EmbedModel: a.cfg.EmbedModel,
		GenModel:   a.cfg.GenModel,
		TopK:       a.cfg.TopK,
		Logger:     logger.With("component", "api"),
	})

	return srv.Run(ctx, a.cfg.Addr)
}
