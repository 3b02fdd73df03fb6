// Package router decides between exact article lookup and vector similarity
// search for a question, and returns ranked context rows.
package router

import (
	"context"
	"fmt"
	"regexp"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
)

// Route labels returned alongside the context.
const (
	RouteDirect = "direct_article"
	RouteVector = "vector"
)

// Questions cite articles loosely: "10. a člen", "10.a člen", "70 . člen".
// Spaces around the dot and the suffix are tolerated. "člen" is bounded as a
// whole word with its Slovene declensions; RE2's \b is ASCII-only, so the
// trailing boundary is an explicit non-letter-or-end group. Without it
// "členitev" would match.
var questionArticleRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s*\.\s*([a-zčšž])?\s*člen(?:a|u|om|ih|i)?(?:[^\p{L}]|$)`)

// ArticleInQuestion extracts an explicitly cited article number from a
// question, normalized to "10.a" or "10." form.
func ArticleInQuestion(question string) (string, bool) {
	m := questionArticleRe.FindStringSubmatch(question)
	if m == nil {
		return "", false
	}
	if m[2] != "" {
		return m[1] + "." + m[2], true
	}
	return m[1] + ".", true
}

// Store is the retrieval surface the router needs.
type Store interface {
	ArticleChunks(ctx context.Context, project, articleNum string, limit int) ([]graph.ContextRow, error)
	SearchChunks(ctx context.Context, project string, embedding []float32, k int) ([]graph.ContextRow, error)
}

// Embedder embeds the question for the vector route.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is the routed context. Rows can be empty on the vector route, that
// is a well-formed no-context outcome, not an error.
type Result struct {
	Rows  []graph.ContextRow
	Route string
}

// Router runs the retrieval decision.
type Router struct {
	store    Store
	embedder Embedder
	project  string
	logger   log.Logger
}

// New creates a router.
func New(store Store, embedder Embedder, project string, logger log.Logger) *Router {
	return &Router{store: store, embedder: embedder, project: project, logger: logger}
}

// directCap keeps the direct route exhaustive for long articles regardless
// of the caller's topK.
const directCap = 200

// Route retrieves context for a question. A question citing an article
// number takes the direct route: every chunk under that article in
// paragraph order, authoritative (score 1.0), without any embedding call.
// When the cited article yields no rows, or no article is cited, the
// question is embedded exactly once and routed through the vector index.
func (r *Router) Route(ctx context.Context, question string, topK int) (*Result, error) {
	if num, ok := ArticleInQuestion(question); ok {
		limit := max(directCap, topK)
		rows, err := r.store.ArticleChunks(ctx, r.project, num, limit)
		if err != nil {
			return nil, fmt.Errorf("direct lookup: %w", err)
		}
		if len(rows) > 0 {
			r.logger.Debug("direct route", "article", num, "rows", len(rows))
			return &Result{Rows: rows, Route: RouteDirect}, nil
		}
		r.logger.Debug("cited article has no chunks, falling back to vector", "article", num)
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	rows, err := r.store.SearchChunks(ctx, r.project, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	r.logger.Debug("vector route", "rows", len(rows))
	return &Result{Rows: rows, Route: RouteVector}, nil
}
