// Package composer turns retrieved context into grounded, citation-annotated
// answers and grades student answers against assessable context.
package composer

import (
	"context"
	"fmt"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
)

// InsufficientContext is returned verbatim when retrieval produced no rows.
// The model is never called in that case.
const InsufficientContext = "Kontekst ne zadošča. V bazi ni najdenih ustreznih odstavkov."

// previewLen bounds the citation preview, in runes of the chunk text.
const previewLen = 200

// maxGradingChunks bounds the grading context.
const maxGradingChunks = 20

// Generator produces model completions.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Citation points the reader at the exact paragraph a statement came from.
type Citation struct {
	ArticleNum    string  `json:"clen"`
	ParagraphNum  int     `json:"odstavek"`
	ParagraphIDRC string  `json:"paragraph_id_rc"`
	Score         float64 `json:"score"`
	Preview       string  `json:"preview"`
}

// Answer is a composed response with its supporting citations.
type Answer struct {
	Text      string
	Citations []Citation
}

// Composer drives the generation side of the pipeline.
type Composer struct {
	gen    Generator
	logger log.Logger
}

// New creates a composer.
func New(gen Generator, logger log.Logger) *Composer {
	return &Composer{gen: gen, logger: logger}
}

// Compose answers a question from the given context rows. At most limit rows
// enter the prompt and the citation list. Empty context short-circuits to the
// fixed insufficient-context answer without calling the model.
func (c *Composer) Compose(ctx context.Context, question string, rows []graph.ContextRow, limit int) (*Answer, error) {
	if len(rows) == 0 {
		return &Answer{Text: InsufficientContext}, nil
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	text, err := c.gen.Generate(ctx, answerPrompt(question, rows))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	citations := make([]Citation, 0, len(rows))
	for _, r := range rows {
		citations = append(citations, Citation{
			ArticleNum:    r.ArticleNum,
			ParagraphNum:  r.ParagraphNum,
			ParagraphIDRC: r.ParagraphIDRC,
			Score:         r.Score,
			Preview:       preview(r.Text),
		})
	}
	c.logger.Debug("answer composed", "citations", len(citations))
	return &Answer{Text: text, Citations: citations}, nil
}

// Grade evaluates a student answer against assessable context chunks. The
// model is instructed to score without leaking specific correct content, and
// an optional article number constrains which articles it may point at. At
// most 20 chunks enter the prompt.
func (c *Composer) Grade(ctx context.Context, question, userAnswer string, chunks []string, articleNum string) (string, error) {
	if len(chunks) > maxGradingChunks {
		chunks = chunks[:maxGradingChunks]
	}
	evaluation, err := c.gen.Generate(ctx, gradingPrompt(question, userAnswer, chunks, articleNum))
	if err != nil {
		return "", fmt.Errorf("grading answer: %w", err)
	}
	return evaluation, nil
}

func preview(text string) string {
	n := 0
	for i := range text {
		if n == previewLen {
			return text[:i]
		}
		n++
	}
	return text
}
