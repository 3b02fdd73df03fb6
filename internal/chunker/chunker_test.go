package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

func TestSplit(t *testing.T) {
	t.Run("three paragraphs at budget boundary", func(t *testing.T) {
		p := strings.Repeat("a", 500)
		body := p + "\n\n" + p + "\n\n" + p

		chunks := Split(body, 800)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.Equal(t, p, c)
		}
	})

	t.Run("packs consecutive paragraphs under budget", func(t *testing.T) {
		body := "prvi\n\ndrugi\n\ntretji"
		chunks := Split(body, 800)
		require.Len(t, chunks, 1)
		assert.Equal(t, "prvi\n\ndrugi\n\ntretji", chunks[0])
	})

	t.Run("oversized paragraph stays whole", func(t *testing.T) {
		big := strings.Repeat("b", 2000)
		chunks := Split("kratek\n\n"+big, 800)
		require.Len(t, chunks, 2)
		assert.Equal(t, "kratek", chunks[0])
		assert.Equal(t, big, chunks[1])
	})

	t.Run("budget counts runes not bytes", func(t *testing.T) {
		p := strings.Repeat("č", 500) // 1000 bytes, 500 runes
		chunks := Split(p+"\n\n"+p, 1002)
		require.Len(t, chunks, 1)
	})

	t.Run("empty and whitespace bodies", func(t *testing.T) {
		assert.Nil(t, Split("", 800))
		assert.Nil(t, Split("\n\n  \n\n", 800))
	})
}

func seedParagraphs(t *testing.T, fake *testutil.FakeGraph) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fake.MergeParagraph(ctx, graph.Paragraph{
		ID: "ZGD1:V:1(1)", ArticleID: "ZGD1:V:1", Num: 1, Text: "Kratko besedilo.",
	}))
	require.NoError(t, fake.MergeParagraph(ctx, graph.Paragraph{
		ID: "ZGD1:V:1(2)", ArticleID: "ZGD1:V:1", Num: 2,
		Text: strings.Repeat("a", 500) + "\n\n" + strings.Repeat("b", 500),
	}))
	require.NoError(t, fake.MergeParagraph(ctx, graph.Paragraph{
		ID: "ZGD1:V:1(3)", ArticleID: "ZGD1:V:1", Num: 3, Text: "",
	}))
}

func TestPassRun(t *testing.T) {
	fake := testutil.NewFakeGraph()
	seedParagraphs(t, fake)
	embedder := testutil.NewMockEmbedder(4)

	pass := NewPass(fake, embedder, "ZGD1", 800, "mxbai-embed-large", 0, log.NewNop())
	stats, err := pass.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Dim)
	assert.Equal(t, 4, fake.IndexDim)
	assert.Equal(t, 2, stats.Paragraphs)
	assert.Equal(t, 3, stats.Chunks)
	assert.Zero(t, stats.Skipped)

	// dimension probe plus one call per chunk
	assert.Equal(t, 4, embedder.CallCount())
	assert.Equal(t, "test", embedder.Calls()[0])

	assert.Equal(t, []string{"ZGD1:V:1(1)#c1"}, fake.ChunkIDsFor("ZGD1:V:1(1)"))
	assert.Equal(t, []string{"ZGD1:V:1(2)#c1", "ZGD1:V:1(2)#c2"}, fake.ChunkIDsFor("ZGD1:V:1(2)"))

	c := fake.Chunks["ZGD1:V:1(1)#c1"]
	assert.Equal(t, 1, c.Seq)
	assert.Equal(t, "mxbai-embed-large", c.EmbedModel)
	assert.Len(t, c.Embedding, 4)
}

func TestPassRerunIsIdempotent(t *testing.T) {
	fake := testutil.NewFakeGraph()
	seedParagraphs(t, fake)
	embedder := testutil.NewMockEmbedder(4)
	pass := NewPass(fake, embedder, "ZGD1", 800, "m", 0, log.NewNop())

	_, err := pass.Run(context.Background())
	require.NoError(t, err)
	calls := embedder.CallCount()

	stats, err := pass.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Paragraphs)
	assert.Zero(t, stats.Chunks)
	// only the dimension probe runs again
	assert.Equal(t, calls+1, embedder.CallCount())
}

func TestPassProbeFailure(t *testing.T) {
	fake := testutil.NewFakeGraph()
	seedParagraphs(t, fake)
	embedder := testutil.NewMockEmbedder(4)
	embedder.Err = assert.AnError

	pass := NewPass(fake, embedder, "ZGD1", 800, "m", 0, log.NewNop())
	_, err := pass.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, fake.IndexDim)
	assert.Empty(t, fake.Chunks)
}

func TestPassSkipsFailedWrites(t *testing.T) {
	fake := testutil.NewFakeGraph()
	seedParagraphs(t, fake)
	fake.UpsertChunkErr = assert.AnError
	embedder := testutil.NewMockEmbedder(4)

	pass := NewPass(fake, embedder, "ZGD1", 800, "m", 0, log.NewNop())
	stats, err := pass.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Paragraphs)
	assert.Equal(t, 2, stats.Skipped)
}
