package loader

import (
	"context"
	"fmt"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/parser"
)

// LoadEntries imports a heading-entry document as a flat act: each entry
// becomes an article (num = sid, heading = title) with the body as its
// single paragraph, under one synthetic part and chapter. Downstream passes
// (references, chunking, retrieval) then treat both corpus kinds uniformly.
func (l *Loader) LoadEntries(ctx context.Context, entries []parser.Entry) (*Stats, error) {
	versionID := graph.VersionKey(l.cfg.Project, l.cfg.ActID, nil)

	err := l.store.MergeActVersion(ctx,
		graph.Act{
			ID:      graph.ActKey(l.cfg.Project, l.cfg.ActID),
			Project: l.cfg.Project,
			ActID:   l.cfg.ActID,
			Title:   l.cfg.ActTitle,
			Source:  l.cfg.ActSource,
		},
		graph.ActVersion{
			ID:    versionID,
			ActID: graph.ActKey(l.cfg.Project, l.cfg.ActID),
		})
	if err != nil {
		return nil, fmt.Errorf("merging act version: %w", err)
	}

	stats := &Stats{}

	pid := graph.PartKey(versionID, "NO_PART")
	if err := l.store.MergePart(ctx, graph.Part{ID: pid, VersionID: versionID, Title: "(brez dela)", Ord: 1}); err != nil {
		return stats, fmt.Errorf("merging container part: %w", err)
	}
	stats.Parts++

	cid := graph.ChapterKey(pid, "NO_CHAPTER")
	if err := l.store.MergeChapter(ctx, graph.Chapter{ID: cid, PartID: pid, Title: "(brez poglavja)", Ord: 1}); err != nil {
		return stats, fmt.Errorf("merging container chapter: %w", err)
	}
	stats.Chapters++

	for i, e := range entries {
		if e.SID == "" {
			l.logger.Warn("skipping entry without sid", "heading", e.HeadingText)
			stats.Skipped++
			continue
		}

		aid := graph.ArticleKey(versionID, e.SID)
		err := l.store.MergeArticle(ctx, graph.Article{
			ID:        aid,
			ChapterID: cid,
			VersionID: versionID,
			Num:       e.SID,
			Ord:       i + 1,
		})
		if err != nil {
			l.logger.Warn("skipping entry", "id", aid, "error", err)
			stats.Skipped++
			continue
		}
		stats.Articles++

		if e.Title != "" {
			if err := l.store.SetArticleHeading(ctx, aid, e.Title); err != nil {
				l.logger.Warn("setting entry heading failed", "id", aid, "error", err)
				stats.Skipped++
			}
		}

		if e.Body == "" {
			continue
		}
		parID := graph.ParagraphKey(aid, 1)
		err = l.store.MergeParagraph(ctx, graph.Paragraph{
			ID:        parID,
			ArticleID: aid,
			Num:       1,
			Text:      e.Body,
			Ord:       1,
		})
		if err != nil {
			l.logger.Warn("skipping entry body", "id", parID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Paragraphs++

		if err := l.store.SetArticleText(ctx, aid, e.Body); err != nil {
			l.logger.Warn("setting entry text failed", "id", aid, "error", err)
			stats.Skipped++
		}
	}

	l.logger.Info("entries imported", "entries", stats.Articles, "skipped", stats.Skipped)
	return stats, nil
}
