// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.legisgraph/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: embedding/generation provider selection and models
//   - Storage: PostgreSQL connection (see storage.go)
//   - RAG: chunking budget, retrieval top-k, reference window
//   - Server: HTTP bind address
//
// Security: the PostgreSQL password and API keys are never logged.
// Validation: range checks in validation.go with sentinel errors, so callers
// can test with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidChunkBudget indicates the chunk character budget is out of range.
	ErrInvalidChunkBudget = errors.New("invalid chunk budget")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidReferenceWindow indicates the citation co-occurrence window is out of range.
	ErrInvalidReferenceWindow = errors.New("invalid reference window")

	// ErrMissingProject indicates the project name is empty.
	ErrMissingProject = errors.New("missing project name")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	// DefaultChunkBudget is the character budget for one chunk. Consecutive
	// paragraphs are packed into a chunk while the total stays at or under
	// this budget.
	DefaultChunkBudget = 800

	// DefaultTopK is the default number of context rows returned per query.
	DefaultTopK = 8

	// DefaultReferenceWindow is the number of characters searched on each
	// side of an article mention for a co-occurring paragraph mention.
	// Heuristic carried from the original extraction pass; kept configurable
	// because it was never validated against ambiguous phrasing.
	DefaultReferenceWindow = 80

	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 90 * time.Second

	// DefaultGenerateTimeout bounds a single generation call.
	DefaultGenerateTimeout = 300 * time.Second
)

// Config stores application configuration.
type Config struct {
	// Corpus identity. Every node written to the graph carries ProjectName.
	ProjectName string `mapstructure:"project_name" json:"project_name"`
	ActID       string `mapstructure:"act_id" json:"act_id"`
	ActTitle    string `mapstructure:"act_title" json:"act_title"`
	ActSource   string `mapstructure:"act_source" json:"act_source"`

	// AI provider and model configuration
	Provider     string  `mapstructure:"provider" json:"provider"` // "ollama" (default) or "openai"
	OllamaHost   string  `mapstructure:"ollama_host" json:"ollama_host"`
	EmbedModel   string  `mapstructure:"embed_model" json:"embed_model"`
	GenModel     string  `mapstructure:"gen_model" json:"gen_model"`
	OpenAIAPIKey string  `mapstructure:"openai_api_key" json:"-"` // SENSITIVE: never serialized
	Temperature  float32 `mapstructure:"temperature" json:"temperature"`
	NumCtx       int     `mapstructure:"num_ctx" json:"num_ctx"`

	EmbedTimeout    time.Duration `mapstructure:"embed_timeout" json:"embed_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"`

	// EmbedRateLimit caps bulk embedding calls per second during the embed
	// pass. Zero disables limiting.
	EmbedRateLimit float64 `mapstructure:"embed_rate_limit" json:"embed_rate_limit"`

	// RAG configuration
	ChunkBudget     int `mapstructure:"chunk_budget" json:"chunk_budget"`
	TopK            int `mapstructure:"top_k" json:"top_k"`
	ReferenceWindow int `mapstructure:"reference_window" json:"reference_window"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration
	Addr string `mapstructure:"addr" json:"addr"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Local development convenience: a .env in the working directory is
	// loaded before env binding. Missing file is not an error.
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".legisgraph")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use defaults
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Corpus defaults
	viper.SetDefault("project_name", "ZGD1")
	viper.SetDefault("act_id", "ZGD-1")
	viper.SetDefault("act_title", "Zakon o gospodarskih družbah")
	viper.SetDefault("act_source", "PISRS")

	// AI defaults
	viper.SetDefault("provider", ProviderOllama)
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embed_model", "mxbai-embed-large")
	viper.SetDefault("gen_model", "qwen2.5:14b")
	viper.SetDefault("temperature", 0.2)
	viper.SetDefault("num_ctx", 8192)
	viper.SetDefault("embed_timeout", DefaultEmbedTimeout)
	viper.SetDefault("generate_timeout", DefaultGenerateTimeout)
	viper.SetDefault("embed_rate_limit", 0.0)

	// RAG defaults
	viper.SetDefault("chunk_budget", DefaultChunkBudget)
	viper.SetDefault("top_k", DefaultTopK)
	viper.SetDefault("reference_window", DefaultReferenceWindow)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "legisgraph")
	viper.SetDefault("postgres_password", "legisgraph_dev_password")
	viper.SetDefault("postgres_db_name", "legisgraph")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("addr", "127.0.0.1:8088")
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are env-only; everything else can also live in the config file.
func bindEnvVariables() {
	viper.SetEnvPrefix("LEGISGRAPH")
	viper.AutomaticEnv()

	// Secrets
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("postgres_password", "LEGISGRAPH_POSTGRES_PASSWORD", "POSTGRES_PASSWORD")
}
