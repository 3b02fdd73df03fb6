// Package loader writes parsed document trees into the graph store with
// deterministic keys, so re-importing the same source is a no-op merge.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/parser"
)

// GraphStore is the persistence surface the loader needs.
type GraphStore interface {
	MergeActVersion(ctx context.Context, act graph.Act, ver graph.ActVersion) error
	MergePart(ctx context.Context, p graph.Part) error
	MergeChapter(ctx context.Context, c graph.Chapter) error
	MergeArticle(ctx context.Context, a graph.Article) error
	SetArticleHeading(ctx context.Context, articleID, heading string) error
	SetArticleText(ctx context.Context, articleID, text string) error
	MergeParagraph(ctx context.Context, p graph.Paragraph) error
	MergePoint(ctx context.Context, p graph.Point) error
	MergeItem(ctx context.Context, it graph.IndentItem) error
	MergeSection(ctx context.Context, s graph.Section) error
	AttachArticleToSection(ctx context.Context, sectionID, articleID string, ord int) error
	ChapterByTitle(ctx context.Context, project, title string) (*graph.Chapter, error)
	ArticleByNum(ctx context.Context, project, num string) (*graph.Article, error)
}

// Config identifies the corpus being loaded.
type Config struct {
	Project   string
	ActID     string
	ActTitle  string
	ActSource string
}

// Stats counts the nodes written by one import pass.
type Stats struct {
	Parts      int
	Chapters   int
	Articles   int
	Paragraphs int
	Points     int
	Items      int
	Skipped    int
}

// Loader writes parsed trees into the graph.
type Loader struct {
	store  GraphStore
	cfg    Config
	logger log.Logger
}

// New creates a loader.
func New(store GraphStore, cfg Config, logger log.Logger) *Loader {
	return &Loader{store: store, cfg: cfg, logger: logger}
}

// LoadAct imports a parsed legal act. The act and version merge is fatal on
// failure; per-entity failures below that are logged and skipped together
// with their subtrees.
func (l *Loader) LoadAct(ctx context.Context, act *parser.ParsedAct) (*Stats, error) {
	versionID := graph.VersionKey(l.cfg.Project, l.cfg.ActID, act.NPB)

	err := l.store.MergeActVersion(ctx,
		graph.Act{
			ID:      graph.ActKey(l.cfg.Project, l.cfg.ActID),
			Project: l.cfg.Project,
			ActID:   l.cfg.ActID,
			Title:   l.cfg.ActTitle,
			Source:  l.cfg.ActSource,
		},
		graph.ActVersion{
			ID:            versionID,
			ActID:         graph.ActKey(l.cfg.Project, l.cfg.ActID),
			NPB:           act.NPB,
			EffectiveFrom: act.EffectiveFrom,
		})
	if err != nil {
		return nil, fmt.Errorf("merging act version: %w", err)
	}

	stats := &Stats{}
	for pi, part := range act.Parts {
		pid, p := l.partNode(versionID, part, pi)
		if err := l.store.MergePart(ctx, p); err != nil {
			l.logger.Warn("skipping part", "id", pid, "error", err)
			stats.Skipped++
			continue
		}
		stats.Parts++

		for ci, ch := range part.Chapters {
			cid, c := l.chapterNode(pid, ch, ci)
			if err := l.store.MergeChapter(ctx, c); err != nil {
				l.logger.Warn("skipping chapter", "id", cid, "error", err)
				stats.Skipped++
				continue
			}
			stats.Chapters++

			for ai, art := range ch.Articles {
				l.loadArticle(ctx, versionID, cid, art, ai, stats)
			}
		}
	}

	l.logger.Info("act imported",
		"version", versionID,
		"articles", stats.Articles,
		"paragraphs", stats.Paragraphs,
		"skipped", stats.Skipped)
	return stats, nil
}

// partNode maps a parsed part to its graph node. An empty num means the
// synthetic container for material outside any part heading.
func (l *Loader) partNode(versionID string, part *parser.ParsedPart, ord int) (string, graph.Part) {
	num, title := part.Num, part.Title
	key := num
	if num == "" {
		key, title = "NO_PART", "(brez dela)"
	}
	pid := strings.ReplaceAll(graph.PartKey(versionID, key), " ", "")
	return pid, graph.Part{ID: pid, VersionID: versionID, Num: num, Title: title, Ord: ord + 1}
}

func (l *Loader) chapterNode(partID string, ch *parser.ParsedChapter, ord int) (string, graph.Chapter) {
	num, title := ch.Num, ch.Title
	key := num
	if num == "" {
		key, title = "NO_CHAPTER", "(brez poglavja)"
	}
	cid := graph.ChapterKey(partID, key)
	return cid, graph.Chapter{ID: cid, PartID: partID, Num: num, Title: title, Ord: ord + 1}
}

func (l *Loader) loadArticle(ctx context.Context, versionID, chapterID string, art *parser.ParsedArticle, ord int, stats *Stats) {
	aid := graph.ArticleKey(versionID, art.Num)
	err := l.store.MergeArticle(ctx, graph.Article{
		ID:        aid,
		ChapterID: chapterID,
		VersionID: versionID,
		Num:       art.Num,
		Ord:       ord + 1,
	})
	if err != nil {
		l.logger.Warn("skipping article", "id", aid, "error", err)
		stats.Skipped++
		return
	}
	stats.Articles++

	if art.Heading != "" {
		if err := l.store.SetArticleHeading(ctx, aid, art.Heading); err != nil {
			l.logger.Warn("setting article heading failed", "id", aid, "error", err)
			stats.Skipped++
		}
	}

	var texts []string
	var prevParID *string
	for _, par := range art.Paragraphs {
		parID := graph.ParagraphKey(aid, par.Num)
		err := l.store.MergeParagraph(ctx, graph.Paragraph{
			ID:        parID,
			ArticleID: aid,
			Num:       par.Num,
			Text:      par.Text,
			Ord:       par.Num,
			PrevID:    prevParID,
		})
		if err != nil {
			l.logger.Warn("skipping paragraph", "id", parID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Paragraphs++
		texts = append(texts, par.Text)
		id := parID
		prevParID = &id

		// Paragraph-level alineas always precede the first point in
		// document order, so their text goes in first.
		for _, it := range par.Items {
			if l.loadItem(ctx, parID, nil, it, stats) {
				texts = append(texts, it.Text)
			}
		}

		var prevPointID *string
		for _, pt := range par.Points {
			pointID := graph.PointKey(parID, pt.Num)
			err := l.store.MergePoint(ctx, graph.Point{
				ID:          pointID,
				ParagraphID: parID,
				Num:         pt.Num,
				Text:        pt.Text,
				Ord:         pt.Num,
				PrevID:      prevPointID,
			})
			if err != nil {
				l.logger.Warn("skipping point", "id", pointID, "error", err)
				stats.Skipped++
				continue
			}
			stats.Points++
			texts = append(texts, pt.Text)
			pid := pointID
			prevPointID = &pid

			for _, it := range pt.Items {
				if l.loadItem(ctx, parID, &pointID, it, stats) {
					texts = append(texts, it.Text)
				}
			}
		}
	}

	if err := l.store.SetArticleText(ctx, aid, strings.Join(texts, "\n\n")); err != nil {
		l.logger.Warn("setting article text failed", "id", aid, "error", err)
		stats.Skipped++
	}
}

func (l *Loader) loadItem(ctx context.Context, parID string, pointID *string, it *parser.ParsedItem, stats *Stats) bool {
	base := parID
	if pointID != nil {
		base = *pointID
	}
	itemID := graph.ItemKey(base, it.Num)

	node := graph.IndentItem{ID: itemID, Num: it.Num, Text: it.Text, Ord: it.Num}
	if pointID != nil {
		node.PointID = pointID
	} else {
		pid := parID
		node.ParagraphID = &pid
	}

	if err := l.store.MergeItem(ctx, node); err != nil {
		l.logger.Warn("skipping indent item", "id", itemID, "error", err)
		stats.Skipped++
		return false
	}
	stats.Items++
	return true
}
