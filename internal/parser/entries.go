package parser

import (
	"regexp"
	"strings"
)

// Entry is one heading-delimited block of an educational text document.
type Entry struct {
	HeadingText string
	SID         string // numeric section id, e.g. "2.1"
	Title       string
	Level       int // dots in the sid: "2" -> 0, "2.1" -> 1
	Body        string
}

var (
	markedHeadingRe = regexp.MustCompile(`^\s*<<\s*(.+?)\s*>>\s*$`)
	plainHeadingRe  = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)(?:\.)?\s+(.+?)\s*$`)
	sidTitleRe      = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\s*(?:\.)?\s*(.*)$`)
)

// isFalseHeading rejects lines that look like numbered headings but are
// equations, references or sentence continuations.
func isFalseHeading(title string) bool {
	if strings.ContainsAny(title, "→=+") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(title)), "poglavju.")
}

// splitSIDTitle extracts the numeric sid and title from a heading string.
func splitSIDTitle(heading string) (sid, title string) {
	ht := strings.TrimSpace(strings.NewReplacer("<<", "", ">>", "").Replace(heading))
	m := sidTitleRe.FindStringSubmatch(ht)
	if m == nil {
		return "", ht
	}
	title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(m[2]), "."))
	return m[1], title
}

func headingLevel(sid string) int {
	if sid == "" {
		return 0
	}
	return strings.Count(sid, ".")
}

// ParseEntries splits a text document into heading-delimited entries.
//
// Explicit <<sid title>> markers are preferred; the numeric "2.1 Title"
// fallback applies only when the document contains no markers at all. The
// mode is decided once for the whole document, never mixed. With markedOnly
// set, a document without markers is rejected (ErrNoMarkers).
func ParseEntries(data string, markedOnly bool) ([]Entry, error) {
	lines := strings.Split(data, "\n")

	hasMarkers := false
	for _, ln := range lines {
		if markedHeadingRe.MatchString(ln) {
			hasMarkers = true
			break
		}
	}

	if markedOnly && !hasMarkers {
		return nil, ErrNoMarkers
	}

	if hasMarkers {
		return parseMarkedEntries(lines), nil
	}
	return parseNumericEntries(lines), nil
}

func parseMarkedEntries(lines []string) []Entry {
	var (
		entries []Entry
		current *Entry
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = normalizeBody(body)
		entries = append(entries, *current)
		current = nil
	}

	for _, ln := range lines {
		if m := markedHeadingRe.FindStringSubmatch(ln); m != nil {
			flush()
			sid, title := splitSIDTitle(m[1])
			current = &Entry{
				HeadingText: strings.TrimSpace(m[1]),
				SID:         sid,
				Title:       title,
				Level:       headingLevel(sid),
			}
			body = body[:0]
			continue
		}
		if current != nil {
			body = append(body, ln)
		}
	}
	flush()
	return entries
}

func parseNumericEntries(lines []string) []Entry {
	var (
		entries []Entry
		heading string
		open    bool
		body    []string
	)

	flush := func() {
		if !open {
			return
		}
		sid, title := splitSIDTitle(heading)
		entries = append(entries, Entry{
			HeadingText: heading,
			SID:         sid,
			Title:       title,
			Level:       headingLevel(sid),
			Body:        normalizeBody(body),
		})
	}

	for _, ln := range lines {
		if m := plainHeadingRe.FindStringSubmatch(ln); m != nil {
			sid, title := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			if !isFalseHeading(title) {
				flush()
				heading = strings.TrimSpace(sid + " " + title)
				open = true
				body = body[:0]
				continue
			}
		}
		if open {
			body = append(body, ln)
		}
	}
	flush()
	return entries
}

// normalizeBody joins body lines, collapsing runs of blank lines to one and
// trimming the result. Bullet lines keep their markers.
func normalizeBody(lines []string) string {
	var out []string
	blank := false
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
