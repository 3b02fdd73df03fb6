package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/legisgraph/legisgraph/internal/ai"
	"github.com/legisgraph/legisgraph/internal/composer"
	"github.com/legisgraph/legisgraph/internal/graph"
	"github.com/legisgraph/legisgraph/internal/log"
	"github.com/legisgraph/legisgraph/internal/router"
)

// Request validation constants.
const (
	MaxQuestionLength = 4000
	MaxAnswerLength   = 20000
	MaxTopK           = 50

	// gradeContextLimit bounds how many rows back a cited article for grading.
	gradeContextLimit = 200
)

// ContextRouter retrieves ranked context for a question.
type ContextRouter interface {
	Route(ctx context.Context, question string, topK int) (*router.Result, error)
}

// Store is the graph surface the handlers read from.
type Store interface {
	ArticleChunks(ctx context.Context, project, articleNum string, limit int) ([]graph.ContextRow, error)
	SearchChunks(ctx context.Context, project string, embedding []float32, k int) ([]graph.ContextRow, error)
	CountChunks(ctx context.Context, project string) (int64, error)
}

// Embedder embeds queries for the search endpoint.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatHandler handles the chat, grading and search endpoints.
type ChatHandler struct {
	router   ContextRouter
	composer *composer.Composer
	store    Store
	embedder Embedder
	project  string
	topK     int
	logger   log.Logger
}

// NewChatHandler creates a new chat handler. topK is the default result
// count when the request does not specify one.
func NewChatHandler(r ContextRouter, c *composer.Composer, store Store, embedder Embedder,
	project string, topK int, logger log.Logger) *ChatHandler {
	return &ChatHandler{
		router:   r,
		composer: c,
		store:    store,
		embedder: embedder,
		project:  project,
		topK:     topK,
		logger:   logger,
	}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("POST /grade-answer", h.grade)
	mux.HandleFunc("POST /search", h.search)
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// ChatResponse is the chat endpoint response.
type ChatResponse struct {
	Answer    string              `json:"answer"`
	Citations []composer.Citation `json:"citations"`
	Route     string              `json:"route"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required", "")
		return
	}
	if len(question) > MaxQuestionLength {
		writeError(w, http.StatusBadRequest, "question too long", "")
		return
	}
	topK := h.clampTopK(req.TopK)

	res, err := h.router.Route(r.Context(), question, topK)
	if err != nil {
		h.fail(w, "retrieval failed", err)
		return
	}

	ans, err := h.composer.Compose(r.Context(), question, res.Rows, topK)
	if err != nil {
		h.fail(w, "answer generation failed", err)
		return
	}

	citations := ans.Citations
	if citations == nil {
		citations = []composer.Citation{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:    ans.Text,
		Citations: citations,
		Route:     res.Route,
	})
}

// GradeRequest is the request body for the grading endpoint.
type GradeRequest struct {
	Question   string `json:"question"`
	UserAnswer string `json:"user_answer"`
	ArticleNum string `json:"article_num"`
}

// GradeResponse is the grading endpoint response.
type GradeResponse struct {
	Evaluation string `json:"evaluation"`
}

func (h *ChatHandler) grade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	question := strings.TrimSpace(req.Question)
	userAnswer := strings.TrimSpace(req.UserAnswer)
	if question == "" || userAnswer == "" {
		writeError(w, http.StatusBadRequest, "question and user_answer are required", "")
		return
	}
	if len(userAnswer) > MaxAnswerLength {
		writeError(w, http.StatusBadRequest, "user_answer too long", "")
		return
	}
	articleNum := strings.TrimSpace(req.ArticleNum)

	rows, err := h.gradeContext(r.Context(), question, articleNum)
	if err != nil {
		h.fail(w, "retrieval failed", err)
		return
	}

	chunks := make([]string, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, row.Text)
	}

	evaluation, err := h.composer.Grade(r.Context(), question, userAnswer, chunks, articleNum)
	if err != nil {
		h.fail(w, "grading failed", err)
		return
	}
	writeJSON(w, http.StatusOK, GradeResponse{Evaluation: evaluation})
}

// gradeContext collects the reference material for grading. An explicit
// article number pins the context to that article; otherwise the question is
// routed like a chat question.
func (h *ChatHandler) gradeContext(ctx context.Context, question, articleNum string) ([]graph.ContextRow, error) {
	if articleNum != "" {
		return h.store.ArticleChunks(ctx, h.project, articleNum, gradeContextLimit)
	}
	res, err := h.router.Route(ctx, question, h.topK)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// SearchRequest is the request body for the semantic search endpoint.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchResponse is the search endpoint response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

func (h *ChatHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}
	topK := h.clampTopK(req.TopK)

	vec, err := h.embedder.Embed(r.Context(), query)
	if err != nil {
		h.fail(w, "embedding failed", err)
		return
	}

	rows, err := h.store.SearchChunks(r.Context(), h.project, vec, topK)
	if err != nil {
		h.fail(w, "search failed", err)
		return
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, SearchResult{Text: row.Text, Score: row.Score})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (h *ChatHandler) clampTopK(topK int) int {
	if topK <= 0 {
		topK = h.topK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	return topK
}

// fail maps upstream model failures to 502 and everything else to 500.
func (h *ChatHandler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	if errors.Is(err, ai.ErrUpstreamService) {
		writeError(w, http.StatusBadGateway, msg, "upstream model unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, msg, "")
}
