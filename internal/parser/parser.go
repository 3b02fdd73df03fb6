// Package parser turns semi-structured source documents into typed trees.
//
// Two source shapes are supported: the consolidated legal HTML rendition
// (CSS-class-driven structure, see legal.go) and plain-text documents with
// heading-entry markers (see entries.go).
package parser

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrSourceFormat indicates the source document cannot be interpreted.
	ErrSourceFormat = errors.New("unrecognized source format")

	// ErrNoMarkers indicates marker mode was required but the document
	// contains no heading markers.
	ErrNoMarkers = errors.New("no heading markers found")
)

// ParsedAct is the typed tree produced from a legal HTML document.
type ParsedAct struct {
	NPB           *int
	EffectiveFrom *time.Time
	Parts         []*ParsedPart
}

// ParsedPart is a top-level division. Num and Title are empty for the
// synthetic container holding material that appears before any part heading.
type ParsedPart struct {
	Num      string
	Title    string
	Chapters []*ParsedChapter
}

// ParsedChapter groups articles. Num and Title are empty for the synthetic
// container.
type ParsedChapter struct {
	Num      string
	Title    string
	Articles []*ParsedArticle
}

// ParsedArticle holds one article's heading and paragraphs. Num is the
// display form ("10.a").
type ParsedArticle struct {
	Num        string
	Heading    string
	Paragraphs []*ParsedParagraph
}

// ParsedParagraph is a numbered paragraph with its points and direct indent
// items, in document order.
type ParsedParagraph struct {
	Num    int
	Text   string
	Points []*ParsedPoint
	Items  []*ParsedItem
}

// ParsedPoint is a numbered point with its indent items.
type ParsedPoint struct {
	Num   int
	Text  string
	Items []*ParsedItem
}

// ParsedItem is one indent (alinea) line, leading dash stripped. Num counts
// items within the paragraph, not within the point.
type ParsedItem struct {
	Num  int
	Text string
}

var spaceRe = regexp.MustCompile(`\s+`)

// cleanText collapses all whitespace runs to single spaces and trims.
func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
