package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/legisgraph/legisgraph/internal/log"
)

// OpenAIConfig configures the OpenAI-backed provider.
type OpenAIConfig struct {
	APIKey      string
	EmbedModel  string
	GenModel    string
	Temperature float32
}

// OpenAI implements embedding and generation through the OpenAI API, as an
// alternative to a local Ollama instance.
type OpenAI struct {
	cfg    OpenAIConfig
	client *openai.Client
	logger log.Logger
}

// NewOpenAI creates an OpenAI-backed client.
func NewOpenAI(cfg OpenAIConfig, logger log.Logger) *OpenAI {
	return &OpenAI{cfg: cfg, client: openai.NewClient(cfg.APIKey), logger: logger}
}

// Embed returns the embedding vector for a text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.cfg.EmbedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamService, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding from model %s", ErrUpstreamService, o.cfg.EmbedModel)
	}
	return resp.Data[0].Embedding, nil
}

// Generate returns the model's completion for a prompt.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.GenModel,
		Temperature: o.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion from model %s", ErrUpstreamService, o.cfg.GenModel)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
