// Package chunker slices paragraph text into embeddable chunks and runs the
// embedding pass over the graph.
package chunker

import (
	"regexp"
	"strings"
)

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// Split packs a body into chunks of at most budget characters (runes).
// The body is first split into paragraphs on blank-line boundaries, then
// consecutive paragraphs are greedily packed while the running total stays
// within budget. A single paragraph over budget still becomes one oversized
// chunk, text is never truncated mid-paragraph.
func Split(body string, budget int) []string {
	var paragraphs []string
	for _, p := range blankLineRe.Split(body, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks []string
		buf    strings.Builder
		size   int
	)

	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			size = 0
		}
	}

	for _, p := range paragraphs {
		plen := len([]rune(p))
		if size > 0 && size+2+plen > budget {
			flush()
		}
		if size > 0 {
			buf.WriteString("\n\n")
			size += 2
		}
		buf.WriteString(p)
		size += plen
	}
	flush()

	return chunks
}
