package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values. It fails fast on the
// first error so startup problems surface immediately.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ProjectName == "" {
		return ErrMissingProject
	}

	switch c.Provider {
	case ProviderOllama:
		u, err := url.Parse(c.OllamaHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidOllamaHost, c.OllamaHost)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for provider %q", ErrMissingAPIKey, c.Provider)
		}
	default:
		return fmt.Errorf("%w: %q (supported: %s, %s)", ErrInvalidProvider, c.Provider, ProviderOllama, ProviderOpenAI)
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return ErrInvalidPostgresDBName
	}

	if c.ChunkBudget < 100 || c.ChunkBudget > 100000 {
		return fmt.Errorf("%w: %d (must be between 100 and 100000)", ErrInvalidChunkBudget, c.ChunkBudget)
	}
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d (must be between 1 and 100)", ErrInvalidTopK, c.TopK)
	}
	if c.ReferenceWindow < 10 || c.ReferenceWindow > 1000 {
		return fmt.Errorf("%w: %d (must be between 10 and 1000)", ErrInvalidReferenceWindow, c.ReferenceWindow)
	}

	return nil
}
