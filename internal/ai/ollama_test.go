package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/log"
)

func testOllama(t *testing.T, handler http.HandlerFunc) *Ollama {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllama(OllamaConfig{
		Host:            srv.URL,
		EmbedModel:      "mxbai-embed-large",
		GenModel:        "qwen2.5:14b",
		Temperature:     0.2,
		NumCtx:          8192,
		EmbedTimeout:    5 * time.Second,
		GenerateTimeout: 5 * time.Second,
	}, log.NewNop())
}

func TestOllamaEmbed(t *testing.T) {
	client := testOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mxbai-embed-large", req["model"])
		assert.Equal(t, "besedilo", req["prompt"])

		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	})

	vec, err := client.Embed(context.Background(), "besedilo")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	client := testOllama(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	})

	_, err := client.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamService)
}

func TestOllamaGenerate(t *testing.T) {
	client := testOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, false, req["stream"])
		opts, ok := req["options"].(map[string]any)
		require.True(t, ok)
		assert.InDelta(t, 0.2, opts["temperature"], 1e-6)
		assert.InDelta(t, 8192, opts["num_ctx"], 0)

		_ = json.NewEncoder(w).Encode(map[string]any{"response": " odgovor \n"})
	})

	out, err := client.Generate(context.Background(), "vprašanje")
	require.NoError(t, err)
	assert.Equal(t, "odgovor", out)
}

func TestOllamaUpstreamError(t *testing.T) {
	client := testOllama(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	})

	_, err := client.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamService)

	_, err = client.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstreamService)
}

type flakyEmbedder struct {
	failures int32
}

func (f *flakyEmbedder) Embed(context.Context, string) ([]float32, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return nil, errors.New("transient")
	}
	return []float32{1}, nil
}

func TestRetryingEmbedder(t *testing.T) {
	inner := &flakyEmbedder{failures: 2}
	r := NewRetryingEmbedder(inner, 5*time.Second)

	vec, err := r.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
}

func TestRetryingEmbedderContextCancel(t *testing.T) {
	inner := &flakyEmbedder{failures: 1 << 30}
	r := NewRetryingEmbedder(inner, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Embed(ctx, "x")
	require.Error(t, err)
}
