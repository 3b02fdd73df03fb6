package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/legisgraph/legisgraph/internal/log"
)

// OllamaConfig configures the Ollama-compatible client.
type OllamaConfig struct {
	Host            string
	EmbedModel      string
	GenModel        string
	Temperature     float32
	NumCtx          int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Ollama talks to an Ollama-compatible HTTP API. Generation runs without
// streaming; local models can take minutes, so the two operations carry
// separate timeouts.
type Ollama struct {
	cfg         OllamaConfig
	embedClient *http.Client
	genClient   *http.Client
	logger      log.Logger
}

// NewOllama creates a client for the given host, e.g. "http://localhost:11434".
func NewOllama(cfg OllamaConfig, logger log.Logger) *Ollama {
	return &Ollama{
		cfg:         cfg,
		embedClient: &http.Client{Timeout: cfg.EmbedTimeout},
		genClient:   &http.Client{Timeout: cfg.GenerateTimeout},
		logger:      logger,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for a text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	err := o.post(ctx, o.embedClient, "/api/embeddings", embedRequest{
		Model:  o.cfg.EmbedModel,
		Prompt: text,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding from model %s", ErrUpstreamService, o.cfg.EmbedModel)
	}
	return resp.Embedding, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate returns the model's completion for a prompt.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	var resp generateResponse
	err := o.post(ctx, o.genClient, "/api/generate", generateRequest{
		Model:  o.cfg.GenModel,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: o.cfg.Temperature,
			NumCtx:      o.cfg.NumCtx,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

func (o *Ollama) post(ctx context.Context, client *http.Client, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(o.cfg.Host, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamService, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUpstreamService, path, resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUpstreamService, err)
	}
	return nil
}
