package chunker

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
)

// Store is the graph surface the embedding pass needs.
type Store interface {
	ParagraphsWithoutChunks(ctx context.Context, project string) ([]graph.Paragraph, error)
	EnsureChunkIndex(ctx context.Context, dim int) error
	UpsertChunk(ctx context.Context, c graph.Chunk) error
}

// Embedder produces embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Stats counts the work done by one embedding pass.
type Stats struct {
	Paragraphs int
	Chunks     int
	Skipped    int
	Dim        int
}

// Pass chunks and embeds every paragraph that has no chunks yet. The
// candidates query makes reruns idempotent: already chunked paragraphs are
// never touched again.
type Pass struct {
	store    Store
	embedder Embedder
	project  string
	budget   int
	model    string
	limiter  *rate.Limiter
	logger   log.Logger
}

// NewPass creates an embedding pass. ratePerSec caps embedding calls, zero
// disables limiting.
func NewPass(store Store, embedder Embedder, project string, budget int, model string, ratePerSec float64, logger log.Logger) *Pass {
	var limiter *rate.Limiter
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &Pass{
		store:    store,
		embedder: embedder,
		project:  project,
		budget:   budget,
		model:    model,
		limiter:  limiter,
		logger:   logger,
	}
}

// Run probes the embedding dimension, makes sure the vector index matches
// it, then chunks and embeds all candidate paragraphs. A paragraph whose
// embedding fails is skipped whole, so the rerun picks it up again.
func (p *Pass) Run(ctx context.Context) (*Stats, error) {
	probe, err := p.embedder.Embed(ctx, "test")
	if err != nil {
		return nil, fmt.Errorf("probing embedding dimension: %w", err)
	}
	dim := len(probe)

	if err := p.store.EnsureChunkIndex(ctx, dim); err != nil {
		return nil, fmt.Errorf("ensuring chunk index: %w", err)
	}

	candidates, err := p.store.ParagraphsWithoutChunks(ctx, p.project)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	stats := &Stats{Dim: dim}
	for _, par := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n, err := p.embedParagraph(ctx, par)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			p.logger.Warn("skipping paragraph", "id", par.ID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Paragraphs++
		stats.Chunks += n
	}

	p.logger.Info("embedding pass done",
		"paragraphs", stats.Paragraphs,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
		"dim", dim)
	return stats, nil
}

// embedParagraph embeds all chunks of one paragraph before writing any of
// them, so a mid-paragraph failure leaves no partial chunk set behind.
func (p *Pass) embedParagraph(ctx context.Context, par graph.Paragraph) (int, error) {
	texts := Split(par.Text, p.budget)

	chunks := make([]graph.Chunk, 0, len(texts))
	for i, text := range texts {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return 0, err
			}
		}
		vec, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d: %w", i+1, err)
		}
		chunks = append(chunks, graph.Chunk{
			ID:          graph.ChunkKey(par.ID, i+1),
			ParagraphID: par.ID,
			Seq:         i + 1,
			Text:        text,
			Embedding:   vec,
			EmbedModel:  p.model,
		})
	}

	for _, c := range chunks {
		if err := p.store.UpsertChunk(ctx, c); err != nil {
			return 0, fmt.Errorf("writing chunk %s: %w", c.ID, err)
		}
	}
	return len(chunks), nil
}
