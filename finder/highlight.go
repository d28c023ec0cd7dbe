package finder

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Range is a half-open byte range [Start, End) of a display string.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MatchRanges finds every non-overlapping occurrence of query in text, comparing
// lower-cased accent-free forms, and returns the byte ranges in the original text.
func MatchRanges(text, query string) []Range {
	q := foldRunes(strings.TrimSpace(query))
	if len(q) == 0 || text == "" {
		return nil
	}
	var (
		folded  []rune
		offsets []int // byte offset in text of each folded rune
		ends    []int
	)
	for i, r := range text {
		size := utf8.RuneLen(r)
		if size < 0 {
			size = 1
		}
		for _, fr := range foldRunes(string(r)) {
			folded = append(folded, fr)
			offsets = append(offsets, i)
			ends = append(ends, i+size)
		}
	}
	var out []Range
	for i := 0; i+len(q) <= len(folded); {
		if runesEqual(folded[i:i+len(q)], q) {
			out = append(out, Range{Start: offsets[i], End: ends[i+len(q)-1]})
			i += len(q)
			continue
		}
		i++
	}
	return out
}

// foldRunes lower-cases s and strips diacritics, keeping every other character.
func foldRunes(s string) []rune {
	lowered := strings.ToLower(s)
	folded, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		folded = lowered
	}
	out := make([]rune, 0, len(folded))
	for _, r := range folded {
		if unicode.IsControl(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Segment is a piece of display text, marked when it falls inside a match.
type Segment struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// Highlight splits text into plain and matched segments for query.
func Highlight(text, query string) []Segment {
	ranges := MatchRanges(text, query)
	if len(ranges) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}
	var out []Segment
	cursor := 0
	for _, r := range ranges {
		if r.Start > cursor {
			out = append(out, Segment{Text: text[cursor:r.Start]})
		}
		out = append(out, Segment{Text: text[r.Start:r.End], Matched: true})
		cursor = r.End
	}
	if cursor < len(text) {
		out = append(out, Segment{Text: text[cursor:]})
	}
	return out
}
