package graph

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Deterministic node keys. Every structural node is identified by a key
// derived from its position in the corpus, so repeated imports of the same
// source converge on the same rows. Random identifiers (id_rc) are assigned
// only when a key is first seen.

// ActKey builds the key for an act, e.g. "ZGD1:ZGD-1".
func ActKey(project, actID string) string {
	return project + ":" + actID
}

// VersionKey builds the key for a consolidated revision of an act,
// e.g. "ZGD1:ZGD-1_NPB17". A source without a consolidation number gets the
// literal "X" so the key stays stable across re-imports.
func VersionKey(project, actID string, npb *int) string {
	if npb == nil {
		return fmt.Sprintf("%s:%s_NPBX", project, actID)
	}
	return fmt.Sprintf("%s:%s_NPB%d", project, actID, *npb)
}

// PartKey builds the key for a part under a version, e.g.
// "ZGD1:ZGD-1_NPB17:I.".
func PartKey(versionID, partNum string) string {
	return versionID + ":" + partNum
}

// ChapterKey builds the key for a chapter under a part.
func ChapterKey(partID, chapterNum string) string {
	return partID + ":" + chapterNum
}

// NormalizeArticleNum strips dots and spaces from an article number so that
// "10. a" and "10.a" both become "10a". The result is used in keys and in
// article lookups.
func NormalizeArticleNum(num string) string {
	num = strings.ReplaceAll(num, ".", "")
	num = strings.ReplaceAll(num, " ", "")
	return num
}

// ArticleKey builds the key for an article under a version, e.g.
// "ZGD1:ZGD-1_NPB17:10a".
func ArticleKey(versionID, articleNum string) string {
	return versionID + ":" + NormalizeArticleNum(articleNum)
}

// ParagraphKey builds the key for a numbered paragraph under an article,
// e.g. "ZGD1:ZGD-1_NPB17:10a(2)".
func ParagraphKey(articleID string, num int) string {
	return fmt.Sprintf("%s(%d)", articleID, num)
}

// PointKey builds the key for a numbered point under a paragraph,
// e.g. "ZGD1:ZGD-1_NPB17:10a(2).3".
func PointKey(paragraphID string, num int) string {
	return fmt.Sprintf("%s.%d", paragraphID, num)
}

// ItemKey builds the key for an indent item under a paragraph or point.
func ItemKey(parentID string, num int) string {
	return fmt.Sprintf("%s-alinea-%d", parentID, num)
}

// SectionKey builds the key for a thematic section anchored to a chapter.
// Ordinal disambiguates same-numbered siblings under the same parent.
func SectionKey(project, chapterID string, level int, stype string, ordinal int, num string) string {
	return fmt.Sprintf("%s:SEC:%s:%d:%s:%d:%s", project, chapterID, level, stype, ordinal, num)
}

// RefKey builds the key for an extracted reference. The key is a short
// digest of the source node and the raw matched text, so re-running the
// extraction pass upserts rather than duplicates.
func RefKey(project, sourceID, raw string) string {
	sum := sha1.Sum([]byte(sourceID + "|" + raw))
	return project + ":REF:" + hex.EncodeToString(sum[:])[:12]
}

// ChunkKey builds the key for the n-th chunk of a paragraph, 1-based,
// e.g. "ZGD1:ZGD-1_NPB17:10a(2)#c1".
func ChunkKey(paragraphID string, seq int) string {
	return fmt.Sprintf("%s#c%d", paragraphID, seq)
}
