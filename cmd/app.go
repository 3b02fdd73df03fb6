package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/legisgraph/legisgraph/db"
	"github.com/legisgraph/legisgraph/internal/ai"
	"github.com/legisgraph/legisgraph/internal/config"
	"github.com/legisgraph/legisgraph/internal/database"
	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/loader"
	"github.com/legisgraph/legisgraph/internal/log"
)

// aiClient is the full model surface a command may need. Both providers
// implement it.
type aiClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// app bundles the shared dependencies of every command that touches the
// database.
type app struct {
	cfg    *config.Config
	logger log.Logger
	pool   *pgxpool.Pool
	store  *graph.Store
	client aiClient
}

// setup loads configuration, runs pending migrations and connects the pool.
// Every command goes through here so a fresh database is always usable.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		store:  graph.NewStore(pool, logger.With("component", "graph")),
		client: newAIClient(cfg, logger),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// newLoaderFor builds a loader bound to the configured corpus.
func newLoaderFor(a *app) *loader.Loader {
	return loader.New(a.store, loader.Config{
		Project:   a.cfg.ProjectName,
		ActID:     a.cfg.ActID,
		ActTitle:  a.cfg.ActTitle,
		ActSource: a.cfg.ActSource,
	}, a.logger.With("component", "loader"))
}

func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugLogs {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: jsonLogs})
}

// newAIClient selects the model provider. Ollama is the default; OpenAI is
// used when configured explicitly.
func newAIClient(cfg *config.Config, logger log.Logger) aiClient {
	if cfg.Provider == config.ProviderOpenAI {
		return ai.NewOpenAI(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			EmbedModel:  cfg.EmbedModel,
			GenModel:    cfg.GenModel,
			Temperature: cfg.Temperature,
		}, logger.With("provider", "openai"))
	}
	return ai.NewOllama(ai.OllamaConfig{
		Host:            cfg.OllamaHost,
		EmbedModel:      cfg.EmbedModel,
		GenModel:        cfg.GenModel,
		Temperature:     cfg.Temperature,
		NumCtx:          cfg.NumCtx,
		EmbedTimeout:    cfg.EmbedTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
	}, logger.With("provider", "ollama"))
}
