package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/ai"
	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

func sampleRows() []graph.ContextRow {
	return []graph.ContextRow{
		{
			Text:          "(1) Poslovne knjige morajo biti vodene po sistemu dvostavnega knjigovodstva.",
			ArticleNum:    "54.",
			ParagraphNum:  1,
			ParagraphIDRC: "ZGD1:ZGD-1_NPB22:54(1)",
			Score:         1.0,
		},
		{
			Text:          "(2) Letno poročilo je treba sestaviti v treh mesecih po koncu poslovnega leta.",
			ArticleNum:    "54.",
			ParagraphNum:  2,
			ParagraphIDRC: "ZGD1:ZGD-1_NPB22:54(2)",
			Score:         0.93,
		},
	}
}

func TestCompose(t *testing.T) {
	gen := testutil.NewMockGenerator("Poslovne knjige se vodijo dvostavno. [54. člen, 1. odstavek]")
	c := New(gen, log.NewNop())

	ans, err := c.Compose(context.Background(), "Kako se vodijo poslovne knjige?", sampleRows(), 8)
	require.NoError(t, err)

	assert.Contains(t, ans.Text, "dvostavno")
	require.Len(t, ans.Citations, 2)
	assert.Equal(t, "54.", ans.Citations[0].ArticleNum)
	assert.Equal(t, 1, ans.Citations[0].ParagraphNum)
	assert.Equal(t, "ZGD1:ZGD-1_NPB22:54(1)", ans.Citations[0].ParagraphIDRC)
	assert.Equal(t, 1.0, ans.Citations[0].Score)
	assert.NotEmpty(t, ans.Citations[0].Preview)

	// The prompt grounds the model in the retrieved context.
	require.Equal(t, 1, gen.CallCount())
	prompt := gen.Calls()[0]
	assert.Contains(t, prompt, "IZKLJUČNO")
	assert.Contains(t, prompt, "Člen 54. odst. 1 (paragraph_id_rc=ZGD1:ZGD-1_NPB22:54(1))")
	assert.Contains(t, prompt, "VPRAŠANJE: Kako se vodijo poslovne knjige?")
	assert.Contains(t, prompt, "[člen, odstavek, paragraph_id_rc]")
}

func TestComposeEmptyContext(t *testing.T) {
	gen := testutil.NewMockGenerator("should never be returned")
	c := New(gen, log.NewNop())

	ans, err := c.Compose(context.Background(), "Karkoli", nil, 8)
	require.NoError(t, err)

	assert.Equal(t, InsufficientContext, ans.Text)
	assert.Empty(t, ans.Citations)
	assert.Zero(t, gen.CallCount())
}

func TestComposeCapsContext(t *testing.T) {
	rows := make([]graph.ContextRow, 10)
	for i := range rows {
		rows[i] = graph.ContextRow{Text: "besedilo", ArticleNum: "1.", ParagraphNum: i + 1, ParagraphIDRC: "p"}
	}
	gen := testutil.NewMockGenerator("odgovor")
	c := New(gen, log.NewNop())

	ans, err := c.Compose(context.Background(), "Vprašanje", rows, 3)
	require.NoError(t, err)

	assert.Len(t, ans.Citations, 3)
	assert.Equal(t, 3, strings.Count(gen.Calls()[0], "paragraph_id_rc="))
}

func TestComposeGenerationFailure(t *testing.T) {
	gen := testutil.NewMockGenerator("")
	gen.Err = ai.ErrUpstreamService
	c := New(gen, log.NewNop())

	_, err := c.Compose(context.Background(), "Vprašanje", sampleRows(), 8)
	require.ErrorIs(t, err, ai.ErrUpstreamService)
}

func TestGrade(t *testing.T) {
	gen := testutil.NewMockGenerator("Ocena: 7/10, odgovor (delno pravilen)\nOdgovor se dotakne glavne teme.")
	c := New(gen, log.NewNop())

	chunks := []string{"(1) Poslovne knjige morajo biti vodene po sistemu dvostavnega knjigovodstva."}
	eval, err := c.Grade(context.Background(), "Kako se vodijo poslovne knjige?", "Dvostavno.", chunks, "54.")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(eval, "Ocena:"))
	prompt := gen.Calls()[0]
	assert.Contains(t, prompt, "OVREDNOTITI")
	assert.Contains(t, prompt, "Kontekst se nanaša na 54. člen")
	assert.Contains(t, prompt, "ODGOVOR ŠTUDENTA: Dvostavno.")
}

func TestGradeWithoutArticleHint(t *testing.T) {
	gen := testutil.NewMockGenerator("Ocena: 3/10, odgovor (napačen)")
	c := New(gen, log.NewNop())

	_, err := c.Grade(context.Background(), "Vprašanje", "Odgovor", nil, "")
	require.NoError(t, err)

	prompt := gen.Calls()[0]
	assert.Contains(t, prompt, "(Ni konteksta.)")
	assert.NotContains(t, prompt, "Kontekst se nanaša na")
}

func TestGradeCapsChunks(t *testing.T) {
	chunks := make([]string, 30)
	for i := range chunks {
		chunks[i] = "KOS-BESEDILA"
	}
	gen := testutil.NewMockGenerator("Ocena: 1/10, odgovor (napačen)")
	c := New(gen, log.NewNop())

	_, err := c.Grade(context.Background(), "Vprašanje", "Odgovor", chunks, "")
	require.NoError(t, err)

	assert.Equal(t, 20, strings.Count(gen.Calls()[0], "KOS-BESEDILA"))
}

func TestPreviewCountsRunes(t *testing.T) {
	// 250 two-byte runes: the cut falls at 200 characters, not 200 bytes,
	// and never splits a rune.
	long := strings.Repeat("č", 250)
	assert.Equal(t, strings.Repeat("č", 200), preview(long))

	// 150 runes exceed 200 bytes but stay under the character bound.
	short := strings.Repeat("č", 150)
	assert.Equal(t, short, preview(short))
}
