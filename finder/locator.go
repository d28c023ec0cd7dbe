package finder

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ScoreWeights are the locator's tier constants. A prefix hit on the field at
// rank p scores p, a contains hit scores ContainsBase+p and a full-text hit
// scores FullText. Lower is better.
type ScoreWeights struct {
	ContainsBase float64 `json:"containsBase" toml:"containsBase"`
	FullText     float64 `json:"fullText" toml:"fullText"`
}

// DefaultScoreWeights returns the weights used when none are configured.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{ContainsBase: 20, FullText: 50}
}

// normalized lifts the weights so that tiers never overlap for n priority fields.
func (w ScoreWeights) normalized(n int) ScoreWeights {
	if w.ContainsBase <= 0 && w.FullText <= 0 {
		w = DefaultScoreWeights()
	}
	if floor := float64(n + 1); w.ContainsBase < floor {
		w.ContainsBase = floor
	}
	if floor := w.ContainsBase + float64(n+1); w.FullText < floor {
		w.FullText = floor
	}
	return w
}

// DefaultFieldPriority is the locator's field order, strongest first.
func DefaultFieldPriority() []Field {
	return []Field{
		FieldMunicipality,
		FieldInstitutionCode,
		FieldInstitution,
		FieldSiteCode,
		FieldSiteName,
		FieldLocation,
	}
}

// LocateOptions tunes Locate.
type LocateOptions struct {
	Priority      []Field
	Weights       ScoreWeights
	MinQueryLen   int
	MaxCandidates int
}

func (o LocateOptions) withDefaults() LocateOptions {
	if len(o.Priority) == 0 {
		o.Priority = DefaultFieldPriority()
	}
	o.Weights = o.Weights.normalized(len(o.Priority))
	if o.MinQueryLen <= 0 {
		o.MinQueryLen = defaultMinQueryLen
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = defaultMaxCandidates
	}
	return o
}

// maxOffsetFraction keeps score+offset/1000 below the next whole score.
const maxOffsetFraction = 0.999

func offsetFraction(offset int) float64 {
	if offset <= 0 {
		return 0
	}
	f := float64(offset) / 1000
	if f > maxOffsetFraction {
		f = maxOffsetFraction
	}
	return f
}

// Locate ranks the records of idx against query. Each record is tested for a
// prefix hit over the priority fields, then a contains hit, then a full-text hit.
// Results are ordered by score, total (descending), name and dataset order, then
// deduplicated by EntityKey and capped at MaxCandidates.
func Locate(idx *Index, query string, opts LocateOptions) []EntityMatch {
	opts = opts.withDefaults()
	q := SearchKey(query)
	if idx == nil || utf8.RuneCountInString(q) < opts.MinQueryLen {
		return nil
	}

	matches := make([]EntityMatch, 0, 64)
	for _, rec := range idx.Records {
		if m, ok := scoreRecord(rec, q, opts); ok {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Record.Total != b.Record.Total {
			return a.Record.Total > b.Record.Total
		}
		na, nb := sortName(a.Record), sortName(b.Record)
		if na != nb {
			return na < nb
		}
		return a.Record.Pos < b.Record.Pos
	})

	seen := make(map[EntityKey]struct{}, len(matches))
	out := matches[:0]
	for _, m := range matches {
		if _, dup := seen[m.Record.Key]; dup {
			continue
		}
		seen[m.Record.Key] = struct{}{}
		out = append(out, m)
		if len(out) >= opts.MaxCandidates {
			break
		}
	}
	return out
}

func scoreRecord(rec *RowRecord, q string, opts LocateOptions) (EntityMatch, bool) {
	for rank, f := range opts.Priority {
		if strings.HasPrefix(rec.SearchValue(f), q) {
			return EntityMatch{Record: rec, Score: float64(rank + 1), MatchedField: f}, true
		}
	}
	for rank, f := range opts.Priority {
		if pos := strings.Index(rec.SearchValue(f), q); pos >= 0 {
			score := opts.Weights.ContainsBase + float64(rank+1) + offsetFraction(pos)
			return EntityMatch{Record: rec, Score: score, MatchedField: f, Offset: pos}, true
		}
	}
	if pos := strings.Index(rec.FullText(), q); pos >= 0 {
		return EntityMatch{Record: rec, Score: opts.Weights.FullText, MatchedField: FieldNone, Offset: pos}, true
	}
	return EntityMatch{}, false
}

func sortName(rec *RowRecord) string {
	if k := rec.SearchValue(FieldSiteName); k != "" {
		return k
	}
	return rec.SearchValue(FieldInstitution)
}

const missingValue = "—"

// Display labels of a suggestion card.
const (
	LabelSiteCode        = "Código Sede"
	LabelInstitutionCode = "Código IE"
	LabelSiteName        = "SEDE"
	LabelInstitution     = "INSTITUCIÓN"
	LabelLocation        = "UBICACIÓN"
	LabelMunicipality    = "MUNICIPIO"
	LabelStatus          = "Estado"
)

// DefaultClosedMarkers match the status text of closed sites.
func DefaultClosedMarkers() []string {
	return []string{"cier"}
}

// IsClosed reports whether status contains any of markers, ignoring case and accents.
func IsClosed(status string, markers []string) bool {
	s := SearchKey(status)
	if s == "" {
		return false
	}
	for _, m := range markers {
		if mk := SearchKey(m); mk != "" && strings.Contains(s, mk) {
			return true
		}
	}
	return false
}

// Suggest turns ranked matches into suggestion cards, keeping at most limit.
// A limit of zero or less keeps every match.
func Suggest(matches []EntityMatch, query string, limit int, closedMarkers []string) []EntitySuggestion {
	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}
	q := SearchKey(query)
	out := make([]EntitySuggestion, 0, limit)
	for _, m := range matches[:limit] {
		out = append(out, suggestion(m, q, closedMarkers))
	}
	return out
}

// Selection returns the one-row selection of the suggested record.
func (s EntitySuggestion) Selection() Selection {
	if s.Record == nil {
		return Selection{}
	}
	return Selection{Records: []*RowRecord{s.Record}}
}

func suggestion(m EntityMatch, q string, closedMarkers []string) EntitySuggestion {
	rec := m.Record
	s := EntitySuggestion{
		Key:    rec.Key,
		Pos:    rec.Pos,
		Score:  m.Score,
		Offset: m.Offset,
		Record: rec,
	}
	if m.MatchedField != FieldNone {
		s.MatchedField = m.MatchedField.String()
	}

	lines := make([]DisplayField, 0, 5)
	if q != "" {
		switch {
		case strings.HasPrefix(rec.SearchValue(FieldSiteCode), q):
			s.CodeMatch = true
			lines = append(lines, DisplayField{Label: LabelSiteCode, Value: rec.Value(FieldSiteCode)})
		case strings.HasPrefix(rec.SearchValue(FieldInstitutionCode), q):
			s.CodeMatch = true
			lines = append(lines, DisplayField{Label: LabelInstitutionCode, Value: rec.Value(FieldInstitutionCode)})
		}
	}
	lines = append(lines,
		DisplayField{Label: LabelSiteName, Value: orMissing(rec.Value(FieldSiteName))},
		DisplayField{Label: LabelInstitution, Value: orMissing(rec.Value(FieldInstitution))},
	)
	if status := rec.Value(FieldStatus); IsClosed(status, closedMarkers) {
		lines = append(lines, DisplayField{Label: LabelStatus, Value: status})
	} else {
		lines = append(lines, DisplayField{Label: LabelLocation, Value: orMissing(rec.Value(FieldLocation))})
	}
	lines = append(lines, DisplayField{Label: LabelMunicipality, Value: orMissing(rec.Value(FieldMunicipality))})
	s.DisplayFields = lines
	return s
}

func orMissing(v string) string {
	if v == "" {
		return missingValue
	}
	return v
}
