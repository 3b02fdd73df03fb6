package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/testutil"
)

func TestHealth(t *testing.T) {
	fg := testutil.NewFakeGraph()
	fg.Chunks["ZGD1:ZGD-1_NPB22:54(1)#c1"] = graph.Chunk{ID: "ZGD1:ZGD-1_NPB22:54(1)#c1"}
	fg.Chunks["ZGD1:ZGD-1_NPB22:54(1)#c2"] = graph.Chunk{ID: "ZGD1:ZGD-1_NPB22:54(1)#c2"}
	h := newTestServer(t, fg, testutil.NewMockEmbedder(4), testutil.NewMockGenerator("odgovor"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ZGD1", resp.Project)
	assert.Equal(t, int64(2), resp.Chunks)
	assert.Equal(t, "mxbai-embed-large", resp.EmbedModel)
	assert.Equal(t, "qwen2.5:14b", resp.GenModel)
}

func TestReadinessWithoutPool(t *testing.T) {
	h := newTestServer(t, testutil.NewFakeGraph(), testutil.NewMockEmbedder(4), testutil.NewMockGenerator("odgovor"))

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
