package finder

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	yearToken      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	qualifierStart = regexp.MustCompile(`[(\[{\-/\\]`)
)

// BaseLabel reduces a header to its category stem: underscores turned into
// spaces, four-digit years removed, the qualifier introduced by a bracket, dash or
// slash cut off and whitespace collapsed. A header with nothing left keeps its own
// text. Years glued to letters ("PC2023") are not year tokens.
func BaseLabel(header string) string {
	b := strings.ReplaceAll(header, "_", " ")
	b = yearToken.ReplaceAllString(b, " ")
	if loc := qualifierStart.FindStringIndex(b); loc != nil {
		b = b[:loc[0]]
	}
	b = strings.Join(strings.Fields(b), " ")
	if b == "" {
		return strings.TrimSpace(header)
	}
	return b
}

// CategoryGroup is a base label and the headers that reduce to it, in header order.
type CategoryGroup struct {
	BaseLabel string
	Headers   []string
}

// BuildGroups groups headers by base label. Labels are compared by search key;
// groups appear in the order of their first header.
func BuildGroups(headers []string) []CategoryGroup {
	var groups []CategoryGroup
	pos := make(map[string]int)
	for _, h := range headers {
		label := BaseLabel(h)
		key := SearchKey(label)
		if key == "" {
			continue
		}
		if i, ok := pos[key]; ok {
			groups[i].Headers = append(groups[i].Headers, h)
			continue
		}
		pos[key] = len(groups)
		groups = append(groups, CategoryGroup{BaseLabel: label, Headers: []string{h}})
	}
	return groups
}

// CategoryOptions tunes SearchCategories.
type CategoryOptions struct {
	AllowList   []CategoryAlias
	MinQueryLen int
}

// SearchCategories returns the header groups matching query, ranked by the number
// of rows with data in any of their headers.
func SearchCategories(idx *Index, query string, opts CategoryOptions) []CategoryMatch {
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = defaultMinQueryLen
	}
	q := SearchKey(query)
	if idx == nil || utf8.RuneCountInString(q) < opts.MinQueryLen {
		return nil
	}
	allow := compileAllowList(opts.AllowList)

	var out []CategoryMatch
	for _, g := range BuildGroups(idx.Headers) {
		if !groupMatches(g, q, allow) {
			continue
		}
		out = append(out, coverage(idx, g))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchingRowCount > out[j].MatchingRowCount
	})
	return out
}

func groupMatches(g CategoryGroup, q string, allow []compiledAlias) bool {
	if strings.Contains(SearchKey(g.BaseLabel), q) {
		return true
	}
	for _, h := range g.Headers {
		if strings.Contains(SearchKey(h), q) {
			return true
		}
	}
	for _, a := range allow {
		if !aliasMatches(a, q) {
			continue
		}
		for _, h := range g.Headers {
			if strings.Contains(FieldKey(h), a.fieldKey) {
				return true
			}
		}
	}
	return false
}

func aliasMatches(a compiledAlias, q string) bool {
	for _, name := range a.names {
		if strings.Contains(name, q) {
			return true
		}
	}
	return false
}

func coverage(idx *Index, g CategoryGroup) CategoryMatch {
	m := CategoryMatch{
		BaseLabel:      g.BaseLabel,
		Headers:        cloneStrings(g.Headers),
		Municipalities: make(map[string]int),
	}
	for _, rec := range idx.Records {
		if !hasAny(rec, g.Headers) {
			continue
		}
		m.rows = append(m.rows, rec)
		if muni := rec.Value(FieldMunicipality); muni != "" {
			m.Municipalities[muni]++
		}
	}
	m.MatchingRowCount = len(m.rows)
	return m
}

func hasAny(rec *RowRecord, headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(rec.Row[h]) != "" {
			return true
		}
	}
	return false
}

// CategoryByLabel rebuilds the group whose base label equals label, ignoring
// case and accents, and computes its coverage.
func CategoryByLabel(idx *Index, label string) (CategoryMatch, bool) {
	key := SearchKey(label)
	if idx == nil || key == "" {
		return CategoryMatch{}, false
	}
	for _, g := range BuildGroups(idx.Headers) {
		if SearchKey(g.BaseLabel) == key {
			return coverage(idx, g), true
		}
	}
	return CategoryMatch{}, false
}

// TopMunicipalities returns the n municipalities with most covered rows, ties
// broken by name. n <= 0 returns all of them.
func (m CategoryMatch) TopMunicipalities(n int) []MunicipalityCount {
	return topCounts(m.Municipalities, n)
}

// Rows returns a copy of the covered records in dataset order. The records
// themselves are shared and must not be modified.
func (m CategoryMatch) Rows() []*RowRecord {
	return cloneRecords(m.rows)
}

// Selection returns the covered rows and the group's headers as extra columns.
func (m CategoryMatch) Selection() Selection {
	return Selection{Records: cloneRecords(m.rows), ExtraHeaders: cloneStrings(m.Headers)}
}

func cloneRecords(recs []*RowRecord) []*RowRecord {
	if recs == nil {
		return nil
	}
	return append(make([]*RowRecord, 0, len(recs)), recs...)
}

func topCounts(counts map[string]int, n int) []MunicipalityCount {
	out := make([]MunicipalityCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, MunicipalityCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SuggestCategories turns ranked groups into suggestion cards, keeping at most
// limit groups and topN municipalities per group.
func SuggestCategories(matches []CategoryMatch, limit, topN int) []CategorySuggestion {
	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}
	out := make([]CategorySuggestion, 0, limit)
	for i := range matches[:limit] {
		m := &matches[i]
		out = append(out, CategorySuggestion{
			BaseLabel:         m.BaseLabel,
			Headers:           cloneStrings(m.Headers),
			MatchingRowCount:  m.MatchingRowCount,
			TopMunicipalities: m.TopMunicipalities(topN),
			match:             m,
		})
	}
	return out
}

// Selection returns the rows and extra columns of the suggested group.
func (s CategorySuggestion) Selection() Selection {
	if s.match == nil {
		return Selection{ExtraHeaders: cloneStrings(s.Headers)}
	}
	return s.match.Selection()
}
