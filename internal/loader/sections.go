package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/parser"
)

// SectionStats counts the work done by one section pass.
type SectionStats struct {
	Sections int
	Attached int
	Skipped  int
}

// LoadSections writes the thematic division layer over an already imported
// act. Chapters are resolved by heading text; marks whose chapter or parent
// section is missing are skipped. Ordinals count siblings per parent, so
// same-numbered sections under different parents get distinct keys.
func (l *Loader) LoadSections(ctx context.Context, npb *int, marks []parser.SectionMark) (*SectionStats, error) {
	versionID := graph.VersionKey(l.cfg.Project, l.cfg.ActID, npb)
	stats := &SectionStats{}

	sids := make([]string, len(marks)) // resolved key per mark, "" when skipped
	siblings := map[string]int{}       // parent key -> children seen

	for i, m := range marks {
		ch, err := l.store.ChapterByTitle(ctx, l.cfg.Project, m.ChapterTitle)
		if err != nil {
			if errors.Is(err, graph.ErrNotFound) {
				l.logger.Warn("skipping section, chapter not found", "chapter", m.ChapterTitle, "title", m.Title)
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("resolving chapter: %w", err)
		}

		var parentID *string
		parentKey := ch.ID
		if m.ParentIndex >= 0 {
			sid := sids[m.ParentIndex]
			if sid == "" {
				l.logger.Warn("skipping section, parent was skipped", "title", m.Title)
				stats.Skipped++
				continue
			}
			parentID = &sid
			parentKey = sid
		}

		siblings[parentKey]++
		ordinal := siblings[parentKey]

		id := graph.SectionKey(l.cfg.Project, ch.ID, m.Level, m.SType, ordinal, m.Num)
		chID := ch.ID
		err = l.store.MergeSection(ctx, graph.Section{
			ID:        id,
			VersionID: versionID,
			ChapterID: &chID,
			Level:     m.Level,
			SType:     m.SType,
			Ordinal:   ordinal,
			Num:       m.Num,
			Title:     m.Title,
			ParentID:  parentID,
		})
		if err != nil {
			l.logger.Warn("skipping section", "id", id, "error", err)
			stats.Skipped++
			continue
		}
		sids[i] = id
		stats.Sections++

		for ord, num := range m.ArticleNums {
			art, err := l.store.ArticleByNum(ctx, l.cfg.Project, num)
			if err != nil {
				l.logger.Warn("skipping section article, not found", "section", id, "num", num)
				stats.Skipped++
				continue
			}
			if err := l.store.AttachArticleToSection(ctx, id, art.ID, ord+1); err != nil {
				l.logger.Warn("attaching article failed", "section", id, "article", art.ID, "error", err)
				stats.Skipped++
				continue
			}
			stats.Attached++
		}
	}

	l.logger.Info("sections loaded", "sections", stats.Sections, "articles", stats.Attached, "skipped", stats.Skipped)
	return stats, nil
}
