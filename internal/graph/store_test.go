package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

// seedVersion merges an act with one part/chapter/article/paragraph chain and
// returns the generated keys.
type seededKeys struct {
	version   string
	part      string
	chapter   string
	article   string
	paragraph string
}

func seedVersion(t *testing.T, store *graph.Store) seededKeys {
	t.Helper()
	ctx := context.Background()

	npb := 22
	version := graph.VersionKey("ZGD1", "ZGD-1", &npb)
	require.NoError(t, store.MergeActVersion(ctx,
		graph.Act{ID: graph.ActKey("ZGD1", "ZGD-1"), Project: "ZGD1", ActID: "ZGD-1", Title: "Zakon o gospodarskih družbah"},
		graph.ActVersion{ID: version, ActID: graph.ActKey("ZGD1", "ZGD-1"), NPB: &npb}))

	part := graph.PartKey(version, "I.")
	require.NoError(t, store.MergePart(ctx, graph.Part{ID: part, VersionID: version, Num: "I.", Title: "SPLOŠNE DOLOČBE", Ord: 1}))

	chapter := graph.ChapterKey(part, "1.")
	require.NoError(t, store.MergeChapter(ctx, graph.Chapter{ID: chapter, PartID: part, Num: "1.", Title: "Temeljne določbe", Ord: 1}))

	article := graph.ArticleKey(version, "54.")
	require.NoError(t, store.MergeArticle(ctx, graph.Article{ID: article, ChapterID: chapter, VersionID: version, Num: "54.", Ord: 1}))

	paragraph := graph.ParagraphKey(article, 1)
	require.NoError(t, store.MergeParagraph(ctx, graph.Paragraph{
		ID: paragraph, ArticleID: article, Num: 1,
		Text: "(1) Poslovne knjige morajo biti vodene po sistemu dvostavnega knjigovodstva.",
		Ord:  1,
	}))

	return seededKeys{version: version, part: part, chapter: chapter, article: article, paragraph: paragraph}
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := graph.NewStore(tdb.Pool, log.NewNop())
	keys := seedVersion(t, store)

	t.Run("merge is idempotent", func(t *testing.T) {
		// Second pass over the same source must not error or duplicate.
		seedVersion(t, store)

		var n int
		require.NoError(t, tdb.Pool.QueryRow(ctx, "SELECT count(*) FROM articles").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("id_rc is stable across merges", func(t *testing.T) {
		var before, after string
		require.NoError(t, tdb.Pool.QueryRow(ctx, "SELECT id_rc::text FROM paragraphs WHERE id = $1", keys.paragraph).Scan(&before))
		seedVersion(t, store)
		require.NoError(t, tdb.Pool.QueryRow(ctx, "SELECT id_rc::text FROM paragraphs WHERE id = $1", keys.paragraph).Scan(&after))
		assert.Equal(t, before, after)
	})

	t.Run("article text and lookup", func(t *testing.T) {
		require.NoError(t, store.SetArticleHeading(ctx, keys.article, "(poslovne knjige)"))
		require.NoError(t, store.SetArticleText(ctx, keys.article, "(1) Poslovne knjige..."))

		byNum, err := store.ArticleByNum(ctx, "ZGD1", "54.")
		require.NoError(t, err)
		assert.Equal(t, keys.article, byNum.ID)
		assert.Equal(t, "(poslovne knjige)", byNum.Heading)

		// re-merging the article must not wipe the backfilled heading
		seedVersion(t, store)
		byNum, err = store.ArticleByNum(ctx, "ZGD1", "54.")
		require.NoError(t, err)
		assert.Equal(t, "(poslovne knjige)", byNum.Heading)

		_, err = store.ArticleByNum(ctx, "ZGD1", "999.")
		assert.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("missing heading target", func(t *testing.T) {
		err := store.SetArticleHeading(ctx, "no-such-article", "x")
		assert.ErrorIs(t, err, graph.ErrNotFound)
	})

	t.Run("orphan paragraph violates structure", func(t *testing.T) {
		err := store.MergeParagraph(ctx, graph.Paragraph{
			ID: "orphan(1)", ArticleID: "no-such-article", Num: 1, Text: "x", Ord: 1,
		})
		assert.ErrorIs(t, err, graph.ErrStructuralIntegrity)
	})

	t.Run("references", func(t *testing.T) {
		refID := graph.RefKey("ZGD1", keys.paragraph, "54. člen")
		require.NoError(t, store.UpsertReference(ctx, graph.Reference{
			ID: refID, SourceID: keys.paragraph, Raw: "54. člen", ArticleNum: "54.", Confidence: 0.85,
		}))
		require.NoError(t, store.LinkReferenceTarget(ctx, refID, keys.article))

		// rerun keeps a single row
		require.NoError(t, store.UpsertReference(ctx, graph.Reference{
			ID: refID, SourceID: keys.paragraph, Raw: "54. člen", ArticleNum: "54.", Confidence: 0.85,
		}))
		var n int
		require.NoError(t, tdb.Pool.QueryRow(ctx, "SELECT count(*) FROM refs").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("chunks and retrieval", func(t *testing.T) {
		require.NoError(t, store.EnsureChunkIndex(ctx, 3))

		pending, err := store.ParagraphsWithoutChunks(ctx, "ZGD1")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, keys.paragraph, pending[0].ID)

		require.NoError(t, store.UpsertChunk(ctx, graph.Chunk{
			ID:          graph.ChunkKey(keys.paragraph, 1),
			ParagraphID: keys.paragraph,
			Seq:         1,
			Text:        pending[0].Text,
			Embedding:   []float32{1, 0, 0},
			EmbedModel:  "test-model",
		}))

		pending, err = store.ParagraphsWithoutChunks(ctx, "ZGD1")
		require.NoError(t, err)
		assert.Empty(t, pending)

		count, err := store.CountChunks(ctx, "ZGD1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		direct, err := store.ArticleChunks(ctx, "ZGD1", "54.", 10)
		require.NoError(t, err)
		require.Len(t, direct, 1)
		assert.Equal(t, 1.0, direct[0].Score)
		assert.Regexp(t, `^[0-9a-f-]{36}$`, direct[0].ParagraphIDRC)

		hits, err := store.SearchChunks(ctx, "ZGD1", []float32{1, 0, 0}, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("node texts", func(t *testing.T) {
		texts, err := store.NodeTexts(ctx, "ZGD1", "paragraph")
		require.NoError(t, err)
		require.Len(t, texts, 1)
		assert.Equal(t, keys.paragraph, texts[0].ID)
	})
}
