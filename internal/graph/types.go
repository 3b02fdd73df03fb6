package graph

import "time"

// Act is the root node of a legal corpus.
type Act struct {
	ID      string
	Project string
	ActID   string
	Title   string
	Source  string
}

// ActVersion is one consolidated revision (NPB) of an act.
type ActVersion struct {
	ID            string
	ActID         string
	NPB           *int
	EffectiveFrom *time.Time
}

// Part is a top-level division of a version ("I. SPLOŠNE DOLOČBE").
type Part struct {
	ID        string
	VersionID string
	Num       string
	Title     string
	Ord       int
	PrevID    *string
}

// Chapter is a division under a part.
type Chapter struct {
	ID     string
	PartID string
	Num    string
	Title  string
	Ord    int
	PrevID *string
}

// Article is the primary citable unit.
type Article struct {
	ID        string
	ChapterID string
	VersionID string
	Num       string
	Heading   string
	FullText  string
	Ord       int
	PrevID    *string
}

// Paragraph is a numbered paragraph (odstavek) under an article.
type Paragraph struct {
	ID        string
	ArticleID string
	Num       int
	Text      string
	Ord       int
	PrevID    *string
}

// Point is a numbered point (številčna točka) under a paragraph.
type Point struct {
	ID          string
	ParagraphID string
	Num         int
	Text        string
	Ord         int
	PrevID      *string
}

// IndentItem is an indent (alinea) under a paragraph or a point. Exactly one
// of ParagraphID and PointID is set.
type IndentItem struct {
	ID          string
	ParagraphID *string
	PointID     *string
	Num         int
	Text        string
	Ord         int
	PrevID      *string
}

// Section is a thematic division (oddelek, pododdelek, odsek) layered over
// the normative structure.
type Section struct {
	ID        string
	VersionID string
	ChapterID *string
	Level     int
	SType     string
	Ordinal   int
	Num       string
	Title     string
	ParentID  *string
}

// Reference is a cross-reference extracted from node text. TargetID stays
// nil for dangling references.
type Reference struct {
	ID           string
	SourceID     string
	TargetID     *string
	Raw          string
	ArticleNum   string
	ParagraphNum *int
	Confidence   float32
}

// Chunk is an embeddable slice of a paragraph's text.
type Chunk struct {
	ID          string
	ParagraphID string
	Seq         int
	Text        string
	Embedding   []float32
	EmbedModel  string
}

// NodeText pairs a node key with its text, for text-scanning passes.
type NodeText struct {
	ID   string
	Text string
}

// ContextRow is one ranked retrieval result, carrying everything the answer
// composer needs for a citation.
type ContextRow struct {
	Text          string
	ArticleNum    string
	ParagraphNum  int
	ParagraphIDRC string
	Score         float64
}
