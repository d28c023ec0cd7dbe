package finder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText removes control characters and diacritics. Newlines and tabs become spaces.
func foldText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' || r == '\u00a0' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	folded, _, err := transform.String(stripAccents, cleaned)
	if err != nil {
		return cleaned
	}
	return folded
}

// SearchKey returns the lossy comparison form of text: lower-cased, accent-free,
// with every run of non-alphanumeric characters reduced to a single space.
func SearchKey(text string) string {
	folded := foldText(strings.ToLower(text))
	return collapseRuns(folded, ' ', unicode.ToLower)
}

// FieldKey returns the stable identifier of a header: upper-cased, accent-free,
// non-alphanumeric runs replaced by a single underscore and trimmed at both ends.
func FieldKey(header string) string {
	folded := foldText(strings.ToUpper(header))
	return collapseRuns(folded, '_', unicode.ToUpper)
}

func collapseRuns(s string, sep rune, caseFn func(rune) rune) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(caseFn(r))
			continue
		}
		pending = true
	}
	return b.String()
}

// VisibleText cleans a raw cell for display: control characters removed and
// whitespace collapsed. Accents and case are preserved.
func VisibleText(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' || r == '\u00a0' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}
