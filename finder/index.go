package finder

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RowRecord is the per-row bundle the locator and grouper read. It is built once
// by BuildIndex and never modified afterwards.
type RowRecord struct {
	// Pos is the zero-based position of the row in the dataset.
	Pos   int
	Row   Row
	Total float64
	Key   EntityKey

	values   [fieldCount]string
	keys     [fieldCount]string
	fullText string
}

// Value returns the display text of a semantic field, or "" when the field is absent.
func (r *RowRecord) Value(f Field) string {
	if r == nil || f <= FieldNone || f >= fieldCount {
		return ""
	}
	return r.values[f]
}

// SearchValue returns the search key of a semantic field.
func (r *RowRecord) SearchValue(f Field) string {
	if r == nil || f <= FieldNone || f >= fieldCount {
		return ""
	}
	return r.keys[f]
}

// FullText returns the search key of all cells joined in header order.
func (r *RowRecord) FullText() string {
	if r == nil {
		return ""
	}
	return r.fullText
}

// Cell returns the raw cell for header.
func (r *RowRecord) Cell(header string) string {
	if r == nil {
		return ""
	}
	return r.Row[header]
}

// Name returns the site name, falling back to the institution name.
func (r *RowRecord) Name() string {
	if v := r.Value(FieldSiteName); v != "" {
		return v
	}
	return r.Value(FieldInstitution)
}

// IndexOptions tunes BuildIndex.
type IndexOptions struct {
	Candidates FieldCandidates
}

// Index holds the RowRecords of one dataset load.
type Index struct {
	Headers []string
	Records []*RowRecord
	Fields  ResolvedFields
	// TotalHeader is the column chosen by name for the grand total. It is empty
	// when totals are resolved per row.
	TotalHeader string

	byKey  map[EntityKey]*RowRecord
	digest uint64
}

// BuildIndex derives the RowRecords of ds. Header resolution runs once for the
// whole dataset; absent fields read as empty strings.
func BuildIndex(ds Dataset, opts IndexOptions) *Index {
	headers := cloneStrings(ds.Headers)
	idx := &Index{
		Headers: headers,
		Records: make([]*RowRecord, 0, len(ds.Rows)),
		Fields:  ResolveFields(headers, opts.Candidates),
		byKey:   make(map[EntityKey]*RowRecord, len(ds.Rows)),
	}
	idx.TotalHeader = exactTotalHeader(headers)
	totalLike := totalLikeHeaders(headers)

	digest := xxhash.New()
	for _, h := range headers {
		_, _ = digest.WriteString(h)
		_, _ = digest.Write([]byte{0x1f})
	}

	var parts []string
	for pos, src := range ds.Rows {
		row := make(Row, len(headers))
		parts = parts[:0]
		for _, h := range headers {
			cell := src[h]
			row[h] = cell
			if cell != "" {
				parts = append(parts, cell)
			}
			_, _ = digest.WriteString(cell)
			_, _ = digest.Write([]byte{0x1f})
		}
		_, _ = digest.Write([]byte{0x1e})

		rec := &RowRecord{Pos: pos, Row: row}
		for f := FieldSiteName; f < fieldCount; f++ {
			header := idx.Fields.Header(f)
			if header == "" {
				continue
			}
			rec.values[f] = VisibleText(row[header])
			rec.keys[f] = SearchKey(row[header])
		}
		rec.fullText = SearchKey(strings.Join(parts, " "))
		rec.Total = rowTotal(row, headers, idx.TotalHeader, totalLike)
		rec.Key = entityKey(
			rec.values[FieldSiteCode],
			rec.values[FieldInstitutionCode],
			rec.values[FieldSiteName],
			rec.values[FieldInstitution],
			rec.values[FieldMunicipality],
		)
		if _, seen := idx.byKey[rec.Key]; !seen {
			idx.byKey[rec.Key] = rec
		}
		idx.Records = append(idx.Records, rec)
	}
	idx.digest = digest.Sum64()
	return idx
}

// Len reports the number of records.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Records)
}

// Lookup returns the first record carrying key.
func (idx *Index) Lookup(key EntityKey) (*RowRecord, bool) {
	if idx == nil {
		return nil, false
	}
	rec, ok := idx.byKey[key]
	return rec, ok
}

// RecordAt returns the record at dataset position pos.
func (idx *Index) RecordAt(pos int) (*RowRecord, bool) {
	if idx == nil || pos < 0 || pos >= len(idx.Records) {
		return nil, false
	}
	return idx.Records[pos], true
}

// Digest fingerprints headers and cells. Two loads of the same data share a digest.
func (idx *Index) Digest() uint64 {
	if idx == nil {
		return 0
	}
	return idx.digest
}

// Version is the hex form of Digest.
func (idx *Index) Version() string {
	return strconv.FormatUint(idx.Digest(), 16)
}

var exactTotalKeys = []string{"TOTAL_GENERAL", "TOTALGENERAL", "TOTAL"}

func exactTotalHeader(headers []string) string {
	for _, want := range exactTotalKeys {
		for _, h := range headers {
			if FieldKey(h) == want {
				return h
			}
		}
	}
	return ""
}

func totalLikeHeaders(headers []string) []string {
	var out []string
	for _, h := range headers {
		if strings.Contains(FieldKey(h), "TOTAL") {
			out = append(out, h)
		}
	}
	return out
}

// rowTotal resolves the grand total of one row. The final fallback, the largest
// number anywhere in the row, is a heuristic only.
func rowTotal(row Row, headers []string, exact string, totalLike []string) float64 {
	if exact != "" {
		return NumberOrZero(row[exact])
	}
	for _, h := range totalLike {
		if v, ok := ParseNumber(row[h]); ok {
			return v
		}
	}
	best := math.Inf(-1)
	for _, h := range headers {
		if v, ok := ParseNumber(row[h]); ok && v > best {
			best = v
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}
