package reference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/config"
	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Mention
	}{
		{
			name: "plain article",
			text: "kot določa 70. člen tega zakona",
			want: []Mention{{ArticleNum: "70.", Raw: "70. člen"}},
		},
		{
			name: "suffixed article with declension",
			text: "v skladu z 10.a členom",
			want: []Mention{{ArticleNum: "10.a", Raw: "10.a členom"}},
		},
		{
			name: "numeric paragraph nearby",
			text: "glej 2. odstavek 10. člena",
			want: []Mention{{ArticleNum: "10.", ParagraphNum: intp(2), Raw: "10. člena"}},
		},
		{
			name: "declined ordinal paragraph",
			text: "kot je določeno v drugem odstavku 10. člena tega zakona",
			want: []Mention{{ArticleNum: "10.", ParagraphNum: intp(2), Raw: "10. člena"}},
		},
		{
			name: "nominative ordinal paragraph",
			text: "prvi odstavek 52. člena se ne uporablja",
			want: []Mention{{ArticleNum: "52.", ParagraphNum: intp(1), Raw: "52. člena"}},
		},
		{
			name: "multiple mentions",
			text: "glej 10. člen in 12.b člen",
			want: []Mention{
				{ArticleNum: "10.", Raw: "10. člen"},
				{ArticleNum: "12.b", Raw: "12.b člen"},
			},
		},
		{
			name: "no mention",
			text: "ta določba ne vsebuje sklicev",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractMentions(tt.text, config.DefaultReferenceWindow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMentionsWindowBounds(t *testing.T) {
	// the paragraph mention is further away than the window reaches
	filler := ""
	for range 10 {
		filler += "besedilo vmes "
	}
	text := "2. odstavek " + filler + "velja za 10. člen"

	got := ExtractMentions(text, 40)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ParagraphNum)

	got = ExtractMentions(text, 500)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ParagraphNum)
	assert.Equal(t, 2, *got[0].ParagraphNum)
}

func TestRefKeyDeterministic(t *testing.T) {
	a := graph.RefKey("ZGD1", "ZGD1:ZGD-1_NPB22:5(1)", "10. člen")
	b := graph.RefKey("ZGD1", "ZGD1:ZGD-1_NPB22:5(1)", "10. člen")
	c := graph.RefKey("ZGD1", "ZGD1:ZGD-1_NPB22:5(2)", "10. člen")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^ZGD1:REF:[0-9a-f]{12}$`, a)
}

func setupCorpus(t *testing.T) *testutil.FakeGraph {
	t.Helper()
	fake := testutil.NewFakeGraph()
	ctx := context.Background()

	require.NoError(t, fake.MergeArticle(ctx, graph.Article{ID: "ZGD1:V:10a", Num: "10.a"}))
	require.NoError(t, fake.MergeArticle(ctx, graph.Article{ID: "ZGD1:V:52", Num: "52."}))
	require.NoError(t, fake.MergeParagraph(ctx, graph.Paragraph{
		ID: "ZGD1:V:52(1)", ArticleID: "ZGD1:V:52", Num: 1,
		Text: "(1) Kot določa 10.a člen tega zakona.",
	}))
	require.NoError(t, fake.MergePoint(ctx, graph.Point{
		ID: "ZGD1:V:52(1).1", ParagraphID: "ZGD1:V:52(1)", Num: 1,
		Text: "1. glej drugi odstavek 52. člena,",
	}))
	require.NoError(t, fake.MergeItem(ctx, graph.IndentItem{
		ID: "ZGD1:V:52(1).1-alinea-1", Num: 1,
		Text: "sklic na 99. člen",
	}))
	return fake
}

func TestExtractorRun(t *testing.T) {
	fake := setupCorpus(t)
	e := New(fake, "ZGD1", config.DefaultReferenceWindow, log.NewNop())

	stats, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.References)
	assert.Equal(t, 1, stats.Resolved) // 10.a resolves to the article
	assert.Equal(t, 2, stats.Dangling) // 52/2 has no paragraph 2; 99 has no article
	assert.Zero(t, stats.Skipped)

	var resolved, dangling int
	for _, r := range fake.Refs {
		assert.InDelta(t, DefaultConfidence, r.Confidence, 1e-6)
		if r.TargetID != nil {
			resolved++
			assert.Equal(t, "ZGD1:V:10a", *r.TargetID)
		} else {
			dangling++
		}
	}
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 2, dangling)
}

func TestExtractorRunIdempotent(t *testing.T) {
	fake := setupCorpus(t)
	e := New(fake, "ZGD1", config.DefaultReferenceWindow, log.NewNop())

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	before := len(fake.Refs)

	_, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, len(fake.Refs))
}

func intp(n int) *int { return &n }
