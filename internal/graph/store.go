// Package graph persists the legal corpus as a property graph in PostgreSQL.
//
// Nodes live in one table per label with deterministic text keys (see
// keys.go); containment edges are foreign keys and NEXT ordering is a prev_id
// column per table. Chunk embeddings use a pgvector column with an HNSW
// cosine index built once the embedding dimension is known.
package graph

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/legisgraph/legisgraph/internal/log"
)

// Querier abstracts the pgx query surface, so the store works with a pool or
// a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides graph persistence operations.
type Store struct {
	db     Querier
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore creates a graph store backed by a pgx pool.
func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	return &Store{db: pool, pool: pool, logger: logger}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// MergeActVersion upserts the act root node and one of its consolidated
// revisions. Failure here is fatal for an import run, everything else hangs
// off these two nodes.
func (s *Store) MergeActVersion(ctx context.Context, act Act, ver ActVersion) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO acts (id, project, act_id, title, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			updated_at = now()`,
		act.ID, act.Project, act.ActID, act.Title, act.Source)
	if err != nil {
		return wrapWriteError("merging act", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO act_versions (id, act_id, npb, effective_from)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			npb = EXCLUDED.npb,
			effective_from = EXCLUDED.effective_from,
			updated_at = now()`,
		ver.ID, ver.ActID, ver.NPB, ver.EffectiveFrom)
	if err != nil {
		return wrapWriteError("merging act version", err)
	}

	return nil
}

// MergePart upserts a part node under its version.
func (s *Store) MergePart(ctx context.Context, p Part) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parts (id, version_id, num, title, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		p.ID, p.VersionID, p.Num, p.Title, p.Ord, p.PrevID)
	return wrapWriteError("merging part", err)
}

// MergeChapter upserts a chapter node under its part.
func (s *Store) MergeChapter(ctx context.Context, c Chapter) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO chapters (id, part_id, num, title, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		c.ID, c.PartID, c.Num, c.Title, c.Ord, c.PrevID)
	return wrapWriteError("merging chapter", err)
}

// MergeArticle upserts an article node. Heading and full text have dedicated
// setters because they are known only after the article's children are seen.
func (s *Store) MergeArticle(ctx context.Context, a Article) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO articles (id, chapter_id, version_id, num, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			chapter_id = EXCLUDED.chapter_id,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		a.ID, a.ChapterID, a.VersionID, a.Num, a.Ord, a.PrevID)
	return wrapWriteError("merging article", err)
}

// SetArticleHeading sets an article's heading.
func (s *Store) SetArticleHeading(ctx context.Context, articleID, heading string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE articles SET heading = $2, updated_at = now() WHERE id = $1`,
		articleID, heading)
	if err != nil {
		return wrapWriteError("setting article heading", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting article heading: %w: %s", ErrNotFound, articleID)
	}
	return nil
}

// SetArticleText backfills an article's assembled full text.
func (s *Store) SetArticleText(ctx context.Context, articleID, text string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE articles SET full_text = $2, updated_at = now() WHERE id = $1`,
		articleID, text)
	if err != nil {
		return wrapWriteError("setting article text", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting article text: %w: %s", ErrNotFound, articleID)
	}
	return nil
}

// MergeParagraph upserts a paragraph node under its article.
func (s *Store) MergeParagraph(ctx context.Context, p Paragraph) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO paragraphs (id, article_id, num, text, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		p.ID, p.ArticleID, p.Num, p.Text, p.Ord, p.PrevID)
	return wrapWriteError("merging paragraph", err)
}

// MergePoint upserts a point node under its paragraph.
func (s *Store) MergePoint(ctx context.Context, p Point) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO points (id, paragraph_id, num, text, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		p.ID, p.ParagraphID, p.Num, p.Text, p.Ord, p.PrevID)
	return wrapWriteError("merging point", err)
}

// MergeItem upserts an indent item under its paragraph or point.
func (s *Store) MergeItem(ctx context.Context, it IndentItem) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO indent_items (id, paragraph_id, point_id, num, text, ord, prev_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			ord = EXCLUDED.ord,
			prev_id = EXCLUDED.prev_id,
			updated_at = now()`,
		it.ID, it.ParagraphID, it.PointID, it.Num, it.Text, it.Ord, it.PrevID)
	return wrapWriteError("merging indent item", err)
}

// MergeSection upserts a thematic section node.
func (s *Store) MergeSection(ctx context.Context, sec Section) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sections (id, version_id, chapter_id, level, stype, ordinal, num, title, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			parent_id = EXCLUDED.parent_id,
			updated_at = now()`,
		sec.ID, sec.VersionID, sec.ChapterID, sec.Level, sec.SType, sec.Ordinal, sec.Num, sec.Title, sec.ParentID)
	return wrapWriteError("merging section", err)
}

// ChapterByTitle resolves a chapter by its full heading text within a
// project. Thematic section anchoring matches on the heading because the
// section pass re-reads the source independently of the import pass.
func (s *Store) ChapterByTitle(ctx context.Context, project, title string) (*Chapter, error) {
	var c Chapter
	err := s.db.QueryRow(ctx, `
		SELECT ch.id, ch.part_id, ch.num, ch.title, ch.ord, ch.prev_id
		FROM chapters ch
		JOIN parts pt ON pt.id = ch.part_id
		JOIN act_versions v ON v.id = pt.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1 AND ch.title = $2
		LIMIT 1`, project, title).
		Scan(&c.ID, &c.PartID, &c.Num, &c.Title, &c.Ord, &c.PrevID)
	if err != nil {
		return nil, wrapReadError("fetching chapter by title", err)
	}
	return &c, nil
}

// ArticleByNum resolves an article by its display number within a project.
func (s *Store) ArticleByNum(ctx context.Context, project, num string) (*Article, error) {
	var a Article
	err := s.db.QueryRow(ctx, `
		SELECT a.id, a.chapter_id, a.version_id, a.num, a.heading, a.full_text, a.ord, a.prev_id
		FROM articles a
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1
		  AND replace(replace(a.num, '.', ''), ' ', '') = $2
		LIMIT 1`, project, NormalizeArticleNum(num)).
		Scan(&a.ID, &a.ChapterID, &a.VersionID, &a.Num, &a.Heading, &a.FullText, &a.Ord, &a.PrevID)
	if err != nil {
		return nil, wrapReadError("fetching article by num", err)
	}
	return &a, nil
}

// AttachArticleToSection records that an article belongs to a section.
func (s *Store) AttachArticleToSection(ctx context.Context, sectionID, articleID string, ord int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO section_articles (section_id, article_id, ord)
		VALUES ($1, $2, $3)
		ON CONFLICT (section_id, article_id) DO UPDATE SET ord = EXCLUDED.ord`,
		sectionID, articleID, ord)
	return wrapWriteError("attaching article to section", err)
}

// nodeTextQueries maps a node label to the query returning (id, text) for
// every text-bearing node of that label in a project. Labels outside this
// map are rejected, the label is interpolated nowhere.
var nodeTextQueries = map[string]string{
	"paragraph": `
		SELECT p.id, p.text
		FROM paragraphs p
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1 AND p.text <> ''
		ORDER BY p.id`,
	"point": `
		SELECT pt.id, pt.text
		FROM points pt
		JOIN paragraphs p ON p.id = pt.paragraph_id
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1 AND pt.text <> ''
		ORDER BY pt.id`,
	"indent_item": `
		SELECT i.id, i.text
		FROM indent_items i
		LEFT JOIN points pt ON pt.id = i.point_id
		JOIN paragraphs p ON p.id = COALESCE(i.paragraph_id, pt.paragraph_id)
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1 AND i.text <> ''
		ORDER BY i.id`,
}

// NodeTexts returns (id, text) for every text-bearing node with the given
// label ("paragraph", "point", "indent_item") in a project.
func (s *Store) NodeTexts(ctx context.Context, project, label string) ([]NodeText, error) {
	query, ok := nodeTextQueries[label]
	if !ok {
		return nil, fmt.Errorf("listing node texts: unknown label %q", label)
	}

	rows, err := s.db.Query(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("listing node texts: %w", err)
	}
	defer rows.Close()

	var out []NodeText
	for rows.Next() {
		var nt NodeText
		if err := rows.Scan(&nt.ID, &nt.Text); err != nil {
			return nil, fmt.Errorf("scanning node text: %w", err)
		}
		out = append(out, nt)
	}
	return out, rows.Err()
}

// ParagraphByNum fetches a paragraph by its article and ordinal number.
func (s *Store) ParagraphByNum(ctx context.Context, articleID string, num int) (*Paragraph, error) {
	var p Paragraph
	err := s.db.QueryRow(ctx, `
		SELECT id, article_id, num, text, ord, prev_id
		FROM paragraphs WHERE article_id = $1 AND num = $2`, articleID, num).
		Scan(&p.ID, &p.ArticleID, &p.Num, &p.Text, &p.Ord, &p.PrevID)
	if err != nil {
		return nil, wrapReadError("fetching paragraph", err)
	}
	return &p, nil
}

// UpsertReference upserts an extracted cross-reference.
func (s *Store) UpsertReference(ctx context.Context, r Reference) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refs (id, source_id, target_id, raw, article_num, paragraph_num, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			target_id = EXCLUDED.target_id,
			article_num = EXCLUDED.article_num,
			paragraph_num = EXCLUDED.paragraph_num,
			confidence = EXCLUDED.confidence,
			updated_at = now()`,
		r.ID, r.SourceID, r.TargetID, r.Raw, r.ArticleNum, r.ParagraphNum, r.Confidence)
	return wrapWriteError("upserting reference", err)
}

// LinkReferenceTarget resolves a previously dangling reference to a target
// node.
func (s *Store) LinkReferenceTarget(ctx context.Context, refID, targetID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE refs SET target_id = $2, updated_at = now() WHERE id = $1`,
		refID, targetID)
	if err != nil {
		return wrapWriteError("linking reference target", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("linking reference target: %w: %s", ErrNotFound, refID)
	}
	return nil
}

// ParagraphsWithoutChunks returns every paragraph in a project with nonempty
// text and no attached chunk. Reruns of the embed pass only see new work.
func (s *Store) ParagraphsWithoutChunks(ctx context.Context, project string) ([]Paragraph, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.article_id, p.num, p.text, p.ord, p.prev_id
		FROM paragraphs p
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1
		  AND p.text <> ''
		  AND NOT EXISTS (SELECT 1 FROM chunks c WHERE c.paragraph_id = p.id)
		ORDER BY a.ord, p.ord`, project)
	if err != nil {
		return nil, fmt.Errorf("listing unchunked paragraphs: %w", err)
	}
	defer rows.Close()

	var out []Paragraph
	for rows.Next() {
		var p Paragraph
		if err := rows.Scan(&p.ID, &p.ArticleID, &p.Num, &p.Text, &p.Ord, &p.PrevID); err != nil {
			return nil, fmt.Errorf("scanning paragraph: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertChunk upserts a chunk with its embedding.
func (s *Store) UpsertChunk(ctx context.Context, c Chunk) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO chunks (id, paragraph_id, seq, text, embedding, embed_model)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			embed_model = EXCLUDED.embed_model,
			updated_at = now()`,
		c.ID, c.ParagraphID, c.Seq, c.Text, pgvector.NewVector(c.Embedding), c.EmbedModel)
	return wrapWriteError("upserting chunk", err)
}

// EnsureChunkIndex fixes the embedding column to the provider's dimension
// and builds the cosine HNSW index. Idempotent, safe to call on every embed
// pass.
func (s *Store) EnsureChunkIndex(ctx context.Context, dim int) error {
	if dim < 1 || dim > 16000 {
		return fmt.Errorf("ensuring chunk index: invalid dimension %d", dim)
	}

	// Dimension comes from the embedding provider at runtime, so the typed
	// column cannot be part of the migration.
	_, err := s.db.Exec(ctx,
		fmt.Sprintf(`ALTER TABLE chunks ALTER COLUMN embedding TYPE vector(%d)`, dim))
	if err != nil {
		return fmt.Errorf("ensuring chunk index: setting dimension: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS chunks_embedding_idx
		ON chunks USING hnsw (embedding vector_cosine_ops)`)
	if err != nil {
		return fmt.Errorf("ensuring chunk index: creating index: %w", err)
	}

	s.logger.Debug("chunk vector index ready", "dimension", dim)
	return nil
}

// ArticleChunks returns every chunk under the article with the given number,
// in paragraph order. Used by the direct retrieval route; scores are fixed at
// 1.0 because the rows are authoritative, not similar.
func (s *Store) ArticleChunks(ctx context.Context, project, articleNum string, limit int) ([]ContextRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.text, a.num, p.num, p.id_rc::text
		FROM chunks c
		JOIN paragraphs p ON p.id = c.paragraph_id
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1
		  AND replace(replace(a.num, '.', ''), ' ', '') = $2
		ORDER BY p.ord, c.seq
		LIMIT $3`,
		project, NormalizeArticleNum(articleNum), limit)
	if err != nil {
		return nil, fmt.Errorf("fetching article chunks: %w", err)
	}
	defer rows.Close()

	var out []ContextRow
	for rows.Next() {
		row := ContextRow{Score: 1.0}
		if err := rows.Scan(&row.Text, &row.ArticleNum, &row.ParagraphNum, &row.ParagraphIDRC); err != nil {
			return nil, fmt.Errorf("scanning article chunk: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SearchChunks runs cosine similarity search over the chunk index, scoped to
// a project, joining back to paragraph and article for citation data.
func (s *Store) SearchChunks(ctx context.Context, project string, embedding []float32, k int) ([]ContextRow, error) {
	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(ctx, `
		SELECT c.text, a.num, p.num, p.id_rc::text, 1 - (c.embedding <=> $2) AS score
		FROM chunks c
		JOIN paragraphs p ON p.id = c.paragraph_id
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1 AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $2
		LIMIT $3`,
		project, vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var out []ContextRow
	for rows.Next() {
		var row ContextRow
		if err := rows.Scan(&row.Text, &row.ArticleNum, &row.ParagraphNum, &row.ParagraphIDRC, &row.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountChunks reports the number of chunks in a project, for health checks.
func (s *Store) CountChunks(ctx context.Context, project string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT count(*)
		FROM chunks c
		JOIN paragraphs p ON p.id = c.paragraph_id
		JOIN articles a ON a.id = p.article_id
		JOIN act_versions v ON v.id = a.version_id
		JOIN acts act ON act.id = v.act_id
		WHERE act.project = $1`, project).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}
