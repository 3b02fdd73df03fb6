package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legisgraph/legisgraph/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("legisgraph %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version must still print without a usable configuration.
		fmt.Printf("\nConfiguration: unavailable (%v)\n", err)
		return nil
	}

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Project: %s\n", cfg.ProjectName)
	fmt.Printf("  Provider: %s\n", cfg.Provider)
	fmt.Printf("  Embed model: %s\n", cfg.EmbedModel)
	fmt.Printf("  Gen model: %s\n", cfg.GenModel)
	fmt.Printf("  Chunk budget: %d\n", cfg.ChunkBudget)
	fmt.Printf("  Top-k: %d\n", cfg.TopK)
	fmt.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
	if cfg.OpenAIAPIKey != "" {
		fmt.Println("  OPENAI_API_KEY: configured")
	}
	return nil
}
