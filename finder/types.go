package finder

import "strings"

// Row maps every header of a dataset to its cell text. Missing cells are "".
type Row map[string]string

// Dataset is the loader output: ordered raw headers plus one Row per data line.
type Dataset struct {
	Headers []string
	Rows    []Row
}

// Field names a semantic column the index resolves by name.
type Field int

const (
	FieldNone Field = iota
	FieldSiteName
	FieldInstitution
	FieldMunicipality
	FieldLocation
	FieldStatus
	FieldSiteCode
	FieldInstitutionCode
	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldNone:            "",
	FieldSiteName:        "SEDE",
	FieldInstitution:     "INSTITUCION",
	FieldMunicipality:    "MUNICIPIO",
	FieldLocation:        "UBICACION",
	FieldStatus:          "STATUS",
	FieldSiteCode:        "COD_SEDE_DANE",
	FieldInstitutionCode: "COD_IE_DANE",
}

// String returns the canonical column name of the field.
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldNames[f]
}

// ParseField maps a canonical column name (any spelling FieldKey accepts) to a Field.
func ParseField(name string) (Field, bool) {
	key := FieldKey(name)
	if key == "" {
		return FieldNone, false
	}
	for f := FieldSiteName; f < fieldCount; f++ {
		if fieldNames[f] == key {
			return f, true
		}
	}
	switch key {
	case "COD_SEDE":
		return FieldSiteCode, true
	case "COD_IE":
		return FieldInstitutionCode, true
	case "ESTADO":
		return FieldStatus, true
	case "ZONA":
		return FieldLocation, true
	}
	return FieldNone, false
}

// ParseFields converts names with ParseField, skipping unknown or repeated entries.
func ParseFields(names []string) []Field {
	out := make([]Field, 0, len(names))
	seen := make(map[Field]struct{})
	for _, name := range names {
		f, ok := ParseField(name)
		if !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// EntityKey identifies a real-world site for deduplication.
type EntityKey string

func entityKey(siteCode, instCode, site, inst, muni string) EntityKey {
	if c := strings.ToLower(strings.TrimSpace(siteCode)); c != "" {
		return EntityKey("S:" + c)
	}
	if c := strings.ToLower(strings.TrimSpace(instCode)); c != "" {
		return EntityKey("I:" + c)
	}
	return EntityKey("K:" + strings.ToLower(strings.TrimSpace(site)) + "|" +
		strings.ToLower(strings.TrimSpace(inst)) + "|" +
		strings.ToLower(strings.TrimSpace(muni)))
}

// QueryKind distinguishes the two lookup types.
type QueryKind string

const (
	KindEntity   QueryKind = "entity"
	KindCategory QueryKind = "category"
)

// EntityMatch is a ranked locator hit before presentation.
type EntityMatch struct {
	Record       *RowRecord
	Score        float64
	MatchedField Field
	Offset       int
}

// DisplayField is one labelled line of a suggestion card.
type DisplayField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// EntitySuggestion is what a UI renders for a locator hit.
type EntitySuggestion struct {
	Key           EntityKey      `json:"key"`
	Pos           int            `json:"pos"`
	DisplayFields []DisplayField `json:"displayFields"`
	Score         float64        `json:"score"`
	MatchedField  string         `json:"matchedField,omitempty"`
	Offset        int            `json:"offset"`
	CodeMatch     bool           `json:"codeMatch"`
	Record        *RowRecord     `json:"-"`
}

// MunicipalityCount pairs a municipality with the number of rows counted for it.
type MunicipalityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryMatch is a ranked header group.
type CategoryMatch struct {
	BaseLabel        string
	Headers          []string
	MatchingRowCount int
	Municipalities   map[string]int
	rows             []*RowRecord
}

// CategorySuggestion is what a UI renders for a category hit.
type CategorySuggestion struct {
	BaseLabel         string              `json:"baseLabel"`
	Headers           []string            `json:"headers"`
	MatchingRowCount  int                 `json:"matchingRowCount"`
	TopMunicipalities []MunicipalityCount `json:"topMunicipalities"`
	match             *CategoryMatch
}

// Selection is the filtered row set a UI shows after a suggestion is picked.
// ExtraHeaders lists the category columns to render next to the base columns.
type Selection struct {
	Records      []*RowRecord
	ExtraHeaders []string
}

// Len reports the number of selected records.
func (s Selection) Len() int { return len(s.Records) }
