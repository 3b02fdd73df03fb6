package parser

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Article number lines look like "10.a člen"; the word boundary has to be
// spelled out because \b is ASCII-only in RE2.
var clenWordRe = regexp.MustCompile(`(?:^|[^\p{L}])člen(?:[^\p{L}]|$)`)

var (
	npbRe  = regexp.MustCompile(`št\.\s*([0-9]+)`)
	dateRe = regexp.MustCompile(`Datum začetka uporabe:\s*([0-9]{2}\.[0-9]{2}\.[0-9]{4})`)
)

// legalState tracks the open containers while walking the document.
type legalState struct {
	act     *ParsedAct
	part    *ParsedPart
	chapter *ParsedChapter
	article *ParsedArticle

	parNum    int
	pointNum  int
	itemNum   int
	lastPar   *ParsedParagraph
	lastPoint *ParsedPoint
}

// ParseLegalHTML parses a consolidated legal HTML rendition into a typed
// tree. Structure is carried entirely by CSS classes on <p> elements inside
// div.mainText: del (part), poglavje (chapter), clen (article number or
// parenthetical subtitle), odstavek (paragraph), stevilcna_tocka (point) and
// alinea variants (indent items).
//
// Articles appearing before any part or chapter heading land in a synthetic
// container with empty Num; the loader names it.
func ParseLegalHTML(r io.Reader) (*ParsedAct, error) {
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

	st := &legalState{act: &ParsedAct{
		NPB:           parseNPBNumber(doc),
		EffectiveFrom: parseEffectiveDate(doc),
	}}

	body.Find("p").Each(func(_ int, sel *goquery.Selection) {
		classes := strings.Fields(sel.AttrOr("class", ""))
		text := cleanText(sel.Text())
		if text == "" {
			return
		}
		st.handle(classes, text)
	})

	if len(st.act.Parts) == 0 {
		return nil, fmt.Errorf("%w: no structural elements found", ErrSourceFormat)
	}

	return st.act, nil
}

func (st *legalState) handle(classes []string, text string) {
	has := func(c string) bool { return slices.Contains(classes, c) }

	switch {
	case has("del"):
		// "I. DEL SKUPNE DOLOČBE" -> num "I."
		part := &ParsedPart{Num: firstToken(text), Title: text}
		st.act.Parts = append(st.act.Parts, part)
		st.part = part
		st.chapter = nil
		st.closeArticle()

	case has("poglavje"):
		// "Prvo poglavje SPLOŠNO" -> num "Prvo"
		ch := &ParsedChapter{Num: firstToken(text), Title: text}
		st.ensurePart()
		st.part.Chapters = append(st.part.Chapters, ch)
		st.chapter = ch
		st.closeArticle()

	case has("clen") && has("center") && has("bold"):
		if clenWordRe.MatchString(text) {
			st.ensureChapter()
			art := &ParsedArticle{Num: normArticleNum(text)}
			st.chapter.Articles = append(st.chapter.Articles, art)
			st.article = art
			st.parNum = 0
			st.lastPar = nil
			st.lastPoint = nil
			return
		}
		// A parenthesized subtitle line right after the number line, e.g.
		// "(pojmi)". Taken as the open article's heading.
		if st.article != nil && st.article.Heading == "" && strings.HasPrefix(text, "(") {
			st.article.Heading = text
		}

	case has("odstavek"):
		if st.article == nil {
			return
		}
		st.parNum++
		par := &ParsedParagraph{Num: st.parNum, Text: text}
		st.article.Paragraphs = append(st.article.Paragraphs, par)
		st.lastPar = par
		st.lastPoint = nil
		st.pointNum = 0
		st.itemNum = 0

	case has("stevilcna_tocka"):
		if st.lastPar == nil {
			return
		}
		st.pointNum++
		pt := &ParsedPoint{Num: st.pointNum, Text: text}
		st.lastPar.Points = append(st.lastPar.Points, pt)
		st.lastPoint = pt

	case hasAlinea(classes):
		if st.lastPar == nil {
			return
		}
		st.itemNum++
		item := &ParsedItem{Num: st.itemNum, Text: strings.TrimSpace(strings.TrimLeft(text, "-"))}
		if st.lastPoint != nil {
			st.lastPoint.Items = append(st.lastPoint.Items, item)
		} else {
			st.lastPar.Items = append(st.lastPar.Items, item)
		}
	}
}

func (st *legalState) closeArticle() {
	st.article = nil
	st.parNum = 0
	st.lastPar = nil
	st.lastPoint = nil
}

// ensurePart opens the synthetic empty-num part when material appears
// before any part heading.
func (st *legalState) ensurePart() {
	if st.part != nil {
		return
	}
	st.part = &ParsedPart{}
	st.act.Parts = append(st.act.Parts, st.part)
}

func (st *legalState) ensureChapter() {
	st.ensurePart()
	if st.chapter != nil {
		return
	}
	st.chapter = &ParsedChapter{}
	st.part.Chapters = append(st.part.Chapters, st.chapter)
}

func hasAlinea(classes []string) bool {
	for _, c := range classes {
		if strings.Contains(c, "alinea") {
			return true
		}
	}
	return false
}

func firstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// normArticleNum turns "10.a člen" into "10.a" and "1. člen" into "1.".
func normArticleNum(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(cleanText(s), "člen", ""))
}

// parseNPBNumber reads the consolidation number from
// <p class="center bold npb">(neuradno prečiščeno besedilo št. 22)</p>.
func parseNPBNumber(doc *goquery.Document) *int {
	sel := doc.Find("p.npb").First()
	if sel.Length() == 0 {
		return nil
	}
	m := npbRe.FindStringSubmatch(cleanText(sel.Text()))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// parseEffectiveDate reads the effective date from
// <p class="navezava-npb"><strong>Datum začetka uporabe:</strong>08.10.2025</p>.
func parseEffectiveDate(doc *goquery.Document) *time.Time {
	sel := doc.Find("p.navezava-npb").First()
	if sel.Length() == 0 {
		return nil
	}
	m := dateRe.FindStringSubmatch(cleanText(sel.Text()))
	if m == nil {
		return nil
	}
	t, err := time.Parse("02.01.2006", m[1])
	if err != nil {
		return nil
	}
	return &t
}
