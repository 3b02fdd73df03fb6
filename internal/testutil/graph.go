// Package testutil provides shared test doubles: an in-memory graph store
// and recording AI clients.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/legisgraph/legisgraph/internal/graph"
)

// FakeGraph is an in-memory stand-in for the graph store. It implements the
// consumer interfaces of the loader, reference, chunker and router packages
// structurally. Zero value is not usable, call NewFakeGraph.
type FakeGraph struct {
	mu sync.Mutex

	Acts            map[string]graph.Act
	Versions        map[string]graph.ActVersion
	Parts           map[string]graph.Part
	Chapters        map[string]graph.Chapter
	Articles        map[string]graph.Article
	Paragraphs      map[string]graph.Paragraph
	Points          map[string]graph.Point
	Items           map[string]graph.IndentItem
	Sections        map[string]graph.Section
	SectionArticles map[string][]string
	Refs            map[string]graph.Reference
	Chunks          map[string]graph.Chunk

	// IndexDim records the EnsureChunkIndex argument, 0 when never called.
	IndexDim int

	// SearchResults is returned verbatim by SearchChunks; SearchCalls
	// records the query embeddings.
	SearchResults []graph.ContextRow
	SearchCalls   [][]float32

	// Per-operation error injection.
	MergeActVersionErr error
	MergeArticleErr    error
	MergeParagraphErr  error
	UpsertChunkErr     error
	SearchErr          error
	ArticleChunksErr   error
}

// NewFakeGraph creates an empty fake graph.
func NewFakeGraph() *FakeGraph {
	return &FakeGraph{
		Acts:            map[string]graph.Act{},
		Versions:        map[string]graph.ActVersion{},
		Parts:           map[string]graph.Part{},
		Chapters:        map[string]graph.Chapter{},
		Articles:        map[string]graph.Article{},
		Paragraphs:      map[string]graph.Paragraph{},
		Points:          map[string]graph.Point{},
		Items:           map[string]graph.IndentItem{},
		Sections:        map[string]graph.Section{},
		SectionArticles: map[string][]string{},
		Refs:            map[string]graph.Reference{},
		Chunks:          map[string]graph.Chunk{},
	}
}

func (f *FakeGraph) MergeActVersion(_ context.Context, act graph.Act, ver graph.ActVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MergeActVersionErr != nil {
		return f.MergeActVersionErr
	}
	f.Acts[act.ID] = act
	f.Versions[ver.ID] = ver
	return nil
}

func (f *FakeGraph) MergePart(_ context.Context, p graph.Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Parts[p.ID] = p
	return nil
}

func (f *FakeGraph) MergeChapter(_ context.Context, c graph.Chapter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Chapters[c.ID] = c
	return nil
}

func (f *FakeGraph) MergeArticle(_ context.Context, a graph.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MergeArticleErr != nil {
		return f.MergeArticleErr
	}
	if prev, ok := f.Articles[a.ID]; ok {
		a.Heading = prev.Heading
		a.FullText = prev.FullText
	}
	f.Articles[a.ID] = a
	return nil
}

func (f *FakeGraph) SetArticleHeading(_ context.Context, articleID, heading string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Articles[articleID]
	if !ok {
		return graph.ErrNotFound
	}
	a.Heading = heading
	f.Articles[articleID] = a
	return nil
}

func (f *FakeGraph) SetArticleText(_ context.Context, articleID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Articles[articleID]
	if !ok {
		return graph.ErrNotFound
	}
	a.FullText = text
	f.Articles[articleID] = a
	return nil
}

func (f *FakeGraph) MergeParagraph(_ context.Context, p graph.Paragraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MergeParagraphErr != nil {
		return f.MergeParagraphErr
	}
	f.Paragraphs[p.ID] = p
	return nil
}

func (f *FakeGraph) MergePoint(_ context.Context, p graph.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Points[p.ID] = p
	return nil
}

func (f *FakeGraph) MergeItem(_ context.Context, it graph.IndentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Items[it.ID] = it
	return nil
}

func (f *FakeGraph) MergeSection(_ context.Context, s graph.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sections[s.ID] = s
	return nil
}

func (f *FakeGraph) AttachArticleToSection(_ context.Context, sectionID, articleID string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.SectionArticles[sectionID] {
		if id == articleID {
			return nil
		}
	}
	f.SectionArticles[sectionID] = append(f.SectionArticles[sectionID], articleID)
	return nil
}

func (f *FakeGraph) ChapterByTitle(_ context.Context, _, title string) (*graph.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Chapters {
		if c.Title == title {
			ch := c
			return &ch, nil
		}
	}
	return nil, graph.ErrNotFound
}

func (f *FakeGraph) ArticleByNum(_ context.Context, _, num string) (*graph.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := graph.NormalizeArticleNum(num)
	for _, a := range f.Articles {
		if graph.NormalizeArticleNum(a.Num) == want {
			art := a
			return &art, nil
		}
	}
	return nil, graph.ErrNotFound
}

func (f *FakeGraph) ParagraphByNum(_ context.Context, articleID string, num int) (*graph.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Paragraphs {
		if p.ArticleID == articleID && p.Num == num {
			par := p
			return &par, nil
		}
	}
	return nil, graph.ErrNotFound
}

func (f *FakeGraph) NodeTexts(_ context.Context, _, label string) ([]graph.NodeText, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []graph.NodeText
	switch label {
	case "paragraph":
		for _, p := range f.Paragraphs {
			if p.Text != "" {
				out = append(out, graph.NodeText{ID: p.ID, Text: p.Text})
			}
		}
	case "point":
		for _, p := range f.Points {
			if p.Text != "" {
				out = append(out, graph.NodeText{ID: p.ID, Text: p.Text})
			}
		}
	case "indent_item":
		for _, it := range f.Items {
			if it.Text != "" {
				out = append(out, graph.NodeText{ID: it.ID, Text: it.Text})
			}
		}
	default:
		return nil, fmt.Errorf("unknown label %q", label)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeGraph) UpsertReference(_ context.Context, r graph.Reference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Refs[r.ID] = r
	return nil
}

func (f *FakeGraph) LinkReferenceTarget(_ context.Context, refID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Refs[refID]
	if !ok {
		return graph.ErrNotFound
	}
	r.TargetID = &targetID
	f.Refs[refID] = r
	return nil
}

func (f *FakeGraph) ParagraphsWithoutChunks(_ context.Context, _ string) ([]graph.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chunked := map[string]bool{}
	for _, c := range f.Chunks {
		chunked[c.ParagraphID] = true
	}
	var out []graph.Paragraph
	for _, p := range f.Paragraphs {
		if p.Text != "" && !chunked[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeGraph) UpsertChunk(_ context.Context, c graph.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpsertChunkErr != nil {
		return f.UpsertChunkErr
	}
	f.Chunks[c.ID] = c
	return nil
}

func (f *FakeGraph) EnsureChunkIndex(_ context.Context, dim int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IndexDim = dim
	return nil
}

// ArticleChunks joins chunks back to their paragraphs for the article with
// the given number. The paragraph key doubles as the citation id.
func (f *FakeGraph) ArticleChunks(_ context.Context, _, articleNum string, limit int) ([]graph.ContextRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ArticleChunksErr != nil {
		return nil, f.ArticleChunksErr
	}

	want := graph.NormalizeArticleNum(articleNum)
	var out []graph.ContextRow
	var ids []string
	for id := range f.Chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c := f.Chunks[id]
		p, ok := f.Paragraphs[c.ParagraphID]
		if !ok {
			continue
		}
		a, ok := f.Articles[p.ArticleID]
		if !ok || graph.NormalizeArticleNum(a.Num) != want {
			continue
		}
		out = append(out, graph.ContextRow{
			Text:          c.Text,
			ArticleNum:    a.Num,
			ParagraphNum:  p.Num,
			ParagraphIDRC: p.ID,
			Score:         1.0,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *FakeGraph) SearchChunks(_ context.Context, _ string, embedding []float32, k int) ([]graph.ContextRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	f.SearchCalls = append(f.SearchCalls, embedding)
	if len(f.SearchResults) > k {
		return f.SearchResults[:k], nil
	}
	return f.SearchResults, nil
}

func (f *FakeGraph) CountChunks(_ context.Context, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.Chunks)), nil
}

// ArticleIDs returns the sorted article keys, handy for assertions.
func (f *FakeGraph) ArticleIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.Articles))
	for id := range f.Articles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ChunkIDsFor returns the sorted chunk keys attached to a paragraph key
// prefix.
func (f *FakeGraph) ChunkIDsFor(paragraphID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, c := range f.Chunks {
		if c.ParagraphID == paragraphID || strings.HasPrefix(id, paragraphID+"#") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
