// Package reference scans stored node text for legal citations ("10.a
// člen", "drugi odstavek 70. člena") and materializes them as reference
// nodes, linked to their target when it exists in the graph.
package reference

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
)

// DefaultConfidence is attached to every extracted reference. The grammar is
// precise enough for legal text but was never validated exhaustively.
const DefaultConfidence = 0.85

// Article mentions: "10. člen", "10.a člen", "70.č člen" plus declensions.
// \b is ASCII-only in RE2, so the trailing boundary is an explicit non-letter
// and the declension suffix is captured to recover the exact raw span.
var articleRe = regexp.MustCompile(`(?i)\b(\d{1,4})\.\s*([a-zčšž])?\s*(člen(?:a|u|om|ih|i)?)(?:[^\p{L}]|$)`)

// Numeric paragraph mentions: "2. odstavek".
var parNumRe = regexp.MustCompile(`(?i)\b(\d{1,2})\.\s*odstavek\b`)

// Ordinal-word paragraph mentions, matched by stem so declined forms like
// "v drugem odstavku" resolve too.
var ordParRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(prv|drug|tretj|četrt|pet|šest|sedm|osm|devet|deset)(?:i|em|im|ega|emu)?\s+odstavk`)

var ordinalStems = map[string]int{
	"prv": 1, "drug": 2, "tretj": 3, "četrt": 4, "pet": 5,
	"šest": 6, "sedm": 7, "osm": 8, "devet": 9, "deset": 10,
}

// Mention is one article citation found in a text, with an optional
// co-occurring paragraph number.
type Mention struct {
	ArticleNum   string // normalized: "10.a" or "10."
	ParagraphNum *int
	Raw          string
}

// ExtractMentions finds all article mentions in a text. For each mention the
// surrounding window (in runes, on both sides) is searched for a paragraph
// mention; the first numeric or ordinal hit is attached.
func ExtractMentions(text string, window int) []Mention {
	var out []Mention
	for _, idx := range articleRe.FindAllStringSubmatchIndex(text, -1) {
		num := text[idx[2]:idx[3]]
		suf := ""
		if idx[4] >= 0 {
			suf = strings.ToLower(text[idx[4]:idx[5]])
		}
		// raw ends with the (declined) article word, not the boundary rune
		raw := text[idx[0]:idx[7]]

		m := Mention{ArticleNum: normalizeArticleNum(num, suf), Raw: raw}
		if pn := paragraphNumNear(text, idx[0], idx[7], window); pn != 0 {
			n := pn
			m.ParagraphNum = &n
		}
		out = append(out, m)
	}
	return out
}

func normalizeArticleNum(num, suf string) string {
	if suf != "" {
		return num + "." + suf
	}
	return num + "."
}

// paragraphNumNear searches the window around [start,end) for a paragraph
// mention and returns its number, 0 when none is found.
func paragraphNumNear(text string, start, end, window int) int {
	lo := start
	for i := 0; i < window && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < window && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	slice := text[lo:hi]

	if m := parNumRe.FindStringSubmatch(slice); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	if m := ordParRe.FindStringSubmatch(slice); m != nil {
		return ordinalStems[strings.ToLower(m[1])]
	}
	return 0
}

// Store is the graph surface the extraction pass needs.
type Store interface {
	NodeTexts(ctx context.Context, project, label string) ([]graph.NodeText, error)
	UpsertReference(ctx context.Context, r graph.Reference) error
	LinkReferenceTarget(ctx context.Context, refID, targetID string) error
	ArticleByNum(ctx context.Context, project, num string) (*graph.Article, error)
	ParagraphByNum(ctx context.Context, articleID string, num int) (*graph.Paragraph, error)
}

// Stats counts the work done by one extraction pass.
type Stats struct {
	References int
	Resolved   int
	Dangling   int
	Skipped    int
}

// Extractor runs the citation extraction pass.
type Extractor struct {
	store   Store
	project string
	window  int
	logger  log.Logger
}

// New creates an extractor. window is the rune distance searched around an
// article mention for a paragraph mention.
func New(store Store, project string, window int, logger log.Logger) *Extractor {
	return &Extractor{store: store, project: project, window: window, logger: logger}
}

// sourceLabels are scanned in a fixed order so reruns behave identically.
var sourceLabels = []string{"paragraph", "point", "indent_item"}

// Run scans every paragraph, point and indent item in the project. Each
// mention is upserted under a deterministic key, then linked to its target
// when the cited article (and paragraph, when numbered) exists. Dangling
// references are kept without a target.
func (e *Extractor) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	for _, label := range sourceLabels {
		nodes, err := e.store.NodeTexts(ctx, e.project, label)
		if err != nil {
			return stats, fmt.Errorf("reading %s texts: %w", label, err)
		}

		for _, node := range nodes {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			for _, m := range ExtractMentions(node.Text, e.window) {
				if err := e.materialize(ctx, node.ID, m, stats); err != nil {
					e.logger.Warn("skipping reference", "source", node.ID, "raw", m.Raw, "error", err)
					stats.Skipped++
				}
			}
		}
	}

	e.logger.Info("references extracted",
		"total", stats.References,
		"resolved", stats.Resolved,
		"dangling", stats.Dangling,
		"skipped", stats.Skipped)
	return stats, nil
}

func (e *Extractor) materialize(ctx context.Context, sourceID string, m Mention, stats *Stats) error {
	refID := graph.RefKey(e.project, sourceID, m.Raw)

	err := e.store.UpsertReference(ctx, graph.Reference{
		ID:           refID,
		SourceID:     sourceID,
		Raw:          m.Raw,
		ArticleNum:   m.ArticleNum,
		ParagraphNum: m.ParagraphNum,
		Confidence:   DefaultConfidence,
	})
	if err != nil {
		return err
	}
	stats.References++

	targetID, err := e.resolveTarget(ctx, m)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			stats.Dangling++
			return nil
		}
		return err
	}

	if err := e.store.LinkReferenceTarget(ctx, refID, targetID); err != nil {
		return err
	}
	stats.Resolved++
	return nil
}

// resolveTarget finds the cited node. A mention with a paragraph number
// targets that exact paragraph; when the paragraph is missing the reference
// stays dangling even if the article exists.
func (e *Extractor) resolveTarget(ctx context.Context, m Mention) (string, error) {
	art, err := e.store.ArticleByNum(ctx, e.project, m.ArticleNum)
	if err != nil {
		return "", err
	}
	if m.ParagraphNum == nil {
		return art.ID, nil
	}
	par, err := e.store.ParagraphByNum(ctx, art.ID, *m.ParagraphNum)
	if err != nil {
		return "", err
	}
	return par.ID, nil
}
