package parser

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SectionMark is one thematic division heading found in the HTML rendition,
// with the articles that follow it. Marks appear in document order.
// ParentIndex points at the enclosing mark within the returned slice, or -1
// when the section sits directly under its chapter.
type SectionMark struct {
	SType        string // "oddelek", "pododdelek", "odsek"
	Level        int    // 1..3
	Num          string
	Title        string
	ChapterTitle string
	ParentIndex  int
	ArticleNums  []string
}

// sectionLevel maps the CSS class to the nesting level.
func sectionLevel(classes []string) (string, int, bool) {
	switch {
	case slices.Contains(classes, "oddelek"):
		return "oddelek", 1, true
	case slices.Contains(classes, "pododdelek"):
		return "pododdelek", 2, true
	case slices.Contains(classes, "odsek"):
		return "odsek", 3, true
	}
	return "", 0, false
}

// ParseSectionMarks re-reads the legal HTML and extracts the thematic
// division layer (oddelek/pododdelek/odsek) with stack-based nesting.
// Chapters anchor the sections; marks before the first chapter heading are
// skipped. Articles are attached to the innermost open section.
func ParseSectionMarks(r io.Reader) ([]SectionMark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}

	body := doc.Find("div.mainText")
	if body.Length() == 0 {
		body = doc.Find("body")
	}
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: no main content block", ErrSourceFormat)
	}

	var (
		marks        []SectionMark
		stack        []int // indices into marks
		chapterTitle string
	)

	body.Find("p").Each(func(_ int, sel *goquery.Selection) {
		classes := strings.Fields(sel.AttrOr("class", ""))
		text := cleanText(sel.Text())
		if text == "" {
			return
		}

		if slices.Contains(classes, "poglavje") {
			chapterTitle = text
			stack = stack[:0]
			return
		}
		if chapterTitle == "" {
			return
		}

		if stype, level, ok := sectionLevel(classes); ok {
			for len(stack) >= level {
				stack = stack[:len(stack)-1]
			}
			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			marks = append(marks, SectionMark{
				SType:        stype,
				Level:        level,
				Num:          firstToken(text),
				Title:        text,
				ChapterTitle: chapterTitle,
				ParentIndex:  parent,
			})
			stack = append(stack, len(marks)-1)
			return
		}

		if slices.Contains(classes, "clen") && slices.Contains(classes, "center") &&
			slices.Contains(classes, "bold") && clenWordRe.MatchString(text) {
			if len(stack) == 0 {
				return
			}
			top := stack[len(stack)-1]
			marks[top].ArticleNums = append(marks[top].ArticleNums, normArticleNum(text))
		}
	})

	return marks, nil
}
