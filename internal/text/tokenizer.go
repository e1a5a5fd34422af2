// Package text splits reading paragraphs into tappable segments and
// derives the lookup key for each word.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"ieltsreader/internal/models"
)

// Tokenize splits a paragraph on whitespace runs. Whitespace runs are kept
// as non-word segments so that joining every segment's Text yields the
// paragraph unchanged.
func Tokenize(paragraph string) []models.WordSegment {
	if paragraph == "" {
		return nil
	}

	var segments []models.WordSegment
	start := 0
	inSpace := false

	for i, r := range paragraph {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			segments = append(segments, segment(paragraph[start:i], inSpace))
			start = i
			inSpace = space
		}
	}
	segments = append(segments, segment(paragraph[start:], inSpace))

	return segments
}

func segment(s string, space bool) models.WordSegment {
	if space {
		return models.WordSegment{Text: s}
	}
	return models.WordSegment{Text: s, IsWord: true, Key: Normalize(s)}
}

// Join concatenates segment texts back into a paragraph
func Join(segments []models.WordSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Normalize derives the lookup key for a raw word: lowercase, drop a
// trailing possessive ('s or ’s), then trim characters that are not Latin
// or Cyrillic word characters from both ends. It repeats until the key is
// stable, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	key := strings.ToLower(raw)
	for {
		next := normalizeOnce(key)
		if next == key {
			return key
		}
		key = next
	}
}

func normalizeOnce(s string) string {
	s = strings.TrimSuffix(s, "'s")
	s = strings.TrimSuffix(s, "’s")
	return strings.TrimFunc(s, func(r rune) bool { return !isWordRune(r) })
}

// isWordRune matches letters of the Latin and Cyrillic scripts, decimal
// digits and underscore.
func isWordRune(r rune) bool {
	switch {
	case r == '_':
		return true
	case r < utf8.RuneSelf:
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
	default:
		return unicode.In(r, unicode.Latin, unicode.Cyrillic) && (unicode.IsLetter(r) || unicode.IsMark(r))
	}
}

var sentenceEnd = ".!?"

// SentenceAround returns the sentence of paragraph that contains the byte
// offset. Offsets outside the paragraph are clamped.
func SentenceAround(paragraph string, offset int) string {
	if paragraph == "" {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(paragraph) {
		offset = len(paragraph) - 1
	}

	start := 0
	for i := offset - 1; i > 0; i-- {
		if strings.IndexByte(sentenceEnd, paragraph[i-1]) >= 0 && isSpaceByte(paragraph[i]) {
			start = i
			break
		}
	}

	end := len(paragraph)
	for i := offset; i < len(paragraph); i++ {
		if strings.IndexByte(sentenceEnd, paragraph[i]) >= 0 && (i+1 == len(paragraph) || isSpaceByte(paragraph[i+1])) {
			end = i + 1
			break
		}
	}

	return strings.TrimSpace(paragraph[start:end])
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
