package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/legisgraph/legisgraph/internal/ai"
	"github.com/legisgraph/legisgraph/internal/composer"
	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/router"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestServer wires a full handler stack over in-memory fakes.
func newTestServer(t *testing.T, fg *testutil.FakeGraph, emb *testutil.MockEmbedder, gen *testutil.MockGenerator) http.Handler {
	t.Helper()
	logger := log.NewNop()
	deps := Deps{
		Router:     router.New(fg, emb, "ZGD1", logger),
		Composer:   composer.New(gen, logger),
		Store:      fg,
		Embedder:   emb,
		Project:    "ZGD1",
		EmbedModel: "mxbai-embed-large",
		GenModel:   "qwen2.5:14b",
		TopK:       8,
		Logger:     logger,
	}
	return NewServer(deps).Handler()
}

func seedArticle(fg *testutil.FakeGraph) {
	fg.Articles["ZGD1:ZGD-1_NPB22:54"] = graph.Article{ID: "ZGD1:ZGD-1_NPB22:54", Num: "54."}
	fg.Paragraphs["ZGD1:ZGD-1_NPB22:54(1)"] = graph.Paragraph{
		ID:        "ZGD1:ZGD-1_NPB22:54(1)",
		ArticleID: "ZGD1:ZGD-1_NPB22:54",
		Num:       1,
	}
	fg.Chunks["ZGD1:ZGD-1_NPB22:54(1)#c1"] = graph.Chunk{
		ID:          "ZGD1:ZGD-1_NPB22:54(1)#c1",
		ParagraphID: "ZGD1:ZGD-1_NPB22:54(1)",
		Seq:         1,
		Text:        "(1) Poslovne knjige morajo biti vodene po sistemu dvostavnega knjigovodstva.",
	}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatDirectRoute(t *testing.T) {
	fg := testutil.NewFakeGraph()
	seedArticle(fg)
	emb := testutil.NewMockEmbedder(4)
	gen := testutil.NewMockGenerator("Poslovne knjige se vodijo dvostavno. [54. člen, 1. odstavek]")
	h := newTestServer(t, fg, emb, gen)

	rec := post(t, h, "/chat", `{"question": "Kaj določa 54. člen?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, router.RouteDirect, resp.Route)
	assert.Contains(t, resp.Answer, "dvostavno")
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "54.", resp.Citations[0].ArticleNum)
	assert.Equal(t, "ZGD1:ZGD-1_NPB22:54(1)", resp.Citations[0].ParagraphIDRC)
	assert.Zero(t, emb.CallCount())
}

func TestChatVectorRouteEmptyContext(t *testing.T) {
	fg := testutil.NewFakeGraph()
	emb := testutil.NewMockEmbedder(4)
	gen := testutil.NewMockGenerator("should never run")
	h := newTestServer(t, fg, emb, gen)

	rec := post(t, h, "/chat", `{"question": "Nekaj povsem drugega"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, composer.InsufficientContext, resp.Answer)
	assert.Empty(t, resp.Citations)
	assert.Equal(t, router.RouteVector, resp.Route)
	assert.Zero(t, gen.CallCount())

	// citations must serialize as [], not null
	assert.Contains(t, rec.Body.String(), `"citations":[]`)
}

func TestChatMissingQuestion(t *testing.T) {
	h := newTestServer(t, testutil.NewFakeGraph(), testutil.NewMockEmbedder(4), testutil.NewMockGenerator("odgovor"))

	rec := post(t, h, "/chat", `{"question": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUpstreamFailure(t *testing.T) {
	fg := testutil.NewFakeGraph()
	emb := testutil.NewMockEmbedder(4)
	emb.Err = ai.ErrUpstreamService
	h := newTestServer(t, fg, emb, testutil.NewMockGenerator("odgovor"))

	rec := post(t, h, "/chat", `{"question": "Splošno vprašanje"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGradeWithArticleHint(t *testing.T) {
	fg := testutil.NewFakeGraph()
	seedArticle(fg)
	emb := testutil.NewMockEmbedder(4)
	gen := testutil.NewMockGenerator("Ocena: 8/10, odgovor (pravilen)")
	h := newTestServer(t, fg, emb, gen)

	rec := post(t, h, "/grade-answer",
		`{"question": "Kako se vodijo poslovne knjige?", "user_answer": "Dvostavno.", "article_num": "54."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp GradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Evaluation, "Ocena:"))

	// The hinted article's text must be in the grading prompt, with no
	// embedding round-trip.
	require.Equal(t, 1, gen.CallCount())
	assert.Contains(t, gen.Calls()[0], "dvostavnega knjigovodstva")
	assert.Zero(t, emb.CallCount())
}

func TestGradeMissingFields(t *testing.T) {
	h := newTestServer(t, testutil.NewFakeGraph(), testutil.NewMockEmbedder(4), testutil.NewMockGenerator("odgovor"))

	rec := post(t, h, "/grade-answer", `{"question": "Vprašanje"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	fg := testutil.NewFakeGraph()
	fg.SearchResults = []graph.ContextRow{
		{Text: "zadetek", Score: 0.88},
	}
	emb := testutil.NewMockEmbedder(4)
	h := newTestServer(t, fg, emb, testutil.NewMockGenerator("odgovor"))

	rec := post(t, h, "/search", `{"query": "poslovne knjige", "top_k": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "zadetek", resp.Results[0].Text)
	assert.Equal(t, 0.88, resp.Results[0].Score)
	assert.Equal(t, 1, emb.CallCount())
}

func TestSearchEmptyQuery(t *testing.T) {
	h := newTestServer(t, testutil.NewFakeGraph(), testutil.NewMockEmbedder(4), testutil.NewMockGenerator("odgovor"))

	rec := post(t, h, "/search", `{"query": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
