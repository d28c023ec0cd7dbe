package finder

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// FieldCandidates lists, per semantic field, the canonical header names tried in order.
type FieldCandidates struct {
	SiteName        []string `json:"siteName,omitempty" toml:"siteName,omitempty"`
	Institution     []string `json:"institution,omitempty" toml:"institution,omitempty"`
	Municipality    []string `json:"municipality,omitempty" toml:"municipality,omitempty"`
	Location        []string `json:"location,omitempty" toml:"location,omitempty"`
	Status          []string `json:"status,omitempty" toml:"status,omitempty"`
	SiteCode        []string `json:"siteCode,omitempty" toml:"siteCode,omitempty"`
	InstitutionCode []string `json:"institutionCode,omitempty" toml:"institutionCode,omitempty"`
}

func defaultFieldCandidates() FieldCandidates {
	return FieldCandidates{
		SiteName:        []string{"SEDE"},
		Institution:     []string{"INSTITUCION"},
		Municipality:    []string{"MUNICIPIO"},
		Location:        []string{"UBICACION", "ZONA"},
		Status:          []string{"STATUS", "ESTADO"},
		SiteCode:        []string{"COD_SEDE_DANE", "COD_SEDE"},
		InstitutionCode: []string{"COD_IE_DANE", "COD_IE"},
	}
}

// DefaultFieldCandidates returns the built-in header names for each field.
func DefaultFieldCandidates() FieldCandidates {
	return defaultFieldCandidates().clone()
}

// WithDefaults fills nil entries from the built-in candidates so callers can
// override only the fields they need.
func (c FieldCandidates) WithDefaults() FieldCandidates {
	defaults := defaultFieldCandidates()
	return FieldCandidates{
		SiteName:        pickStrings(c.SiteName, defaults.SiteName),
		Institution:     pickStrings(c.Institution, defaults.Institution),
		Municipality:    pickStrings(c.Municipality, defaults.Municipality),
		Location:        pickStrings(c.Location, defaults.Location),
		Status:          pickStrings(c.Status, defaults.Status),
		SiteCode:        pickStrings(c.SiteCode, defaults.SiteCode),
		InstitutionCode: pickStrings(c.InstitutionCode, defaults.InstitutionCode),
	}
}

func (c FieldCandidates) clone() FieldCandidates {
	return FieldCandidates{
		SiteName:        cloneStrings(c.SiteName),
		Institution:     cloneStrings(c.Institution),
		Municipality:    cloneStrings(c.Municipality),
		Location:        cloneStrings(c.Location),
		Status:          cloneStrings(c.Status),
		SiteCode:        cloneStrings(c.SiteCode),
		InstitutionCode: cloneStrings(c.InstitutionCode),
	}
}

func (c FieldCandidates) forField(f Field) []string {
	switch f {
	case FieldSiteName:
		return c.SiteName
	case FieldInstitution:
		return c.Institution
	case FieldMunicipality:
		return c.Municipality
	case FieldLocation:
		return c.Location
	case FieldStatus:
		return c.Status
	case FieldSiteCode:
		return c.SiteCode
	case FieldInstitutionCode:
		return c.InstitutionCode
	}
	return nil
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// MatchTier records which resolution rule found a header. Lower is stronger.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierExact
	TierContains
	TierPrefix
	TierToken
)

// HeaderMatch is the result of resolving a canonical name against the raw headers.
// The zero value means the field is absent from the dataset.
type HeaderMatch struct {
	Header string
	Tier   MatchTier
}

// Found reports whether a header was resolved.
func (m HeaderMatch) Found() bool { return m.Tier != TierNone }

// Get returns the resolved header and whether it exists.
func (m HeaderMatch) Get() (string, bool) { return m.Header, m.Found() }

// minReversePrefix keeps very short header keys such as "N" from prefix-matching
// every longer canonical name.
const minReversePrefix = 3

// ResolveHeader finds the raw header that stands for canonical in headers. Rules are
// tried in order and the first hit wins: exact field key, containment, prefix,
// and finally containment of the first token of the canonical key.
func ResolveHeader(canonical string, headers []string) HeaderMatch {
	return resolveHeaderExcluding(canonical, headers, nil)
}

func resolveHeaderExcluding(canonical string, headers []string, exclude map[string]struct{}) HeaderMatch {
	target := FieldKey(canonical)
	if target == "" {
		return HeaderMatch{}
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = FieldKey(h)
	}
	usable := func(i int) bool {
		if keys[i] == "" {
			return false
		}
		if exclude != nil {
			if _, taken := exclude[headers[i]]; taken {
				return false
			}
		}
		return true
	}
	for i := range headers {
		if usable(i) && keys[i] == target {
			return HeaderMatch{Header: headers[i], Tier: TierExact}
		}
	}
	for i := range headers {
		if usable(i) && strings.Contains(keys[i], target) {
			return HeaderMatch{Header: headers[i], Tier: TierContains}
		}
	}
	bounded := "_" + target + "_"
	for i := range headers {
		if usable(i) && strings.Contains(bounded, "_"+keys[i]+"_") {
			return HeaderMatch{Header: headers[i], Tier: TierContains}
		}
	}
	for i := range headers {
		if !usable(i) {
			continue
		}
		if strings.HasPrefix(keys[i], target) {
			return HeaderMatch{Header: headers[i], Tier: TierPrefix}
		}
		if len(keys[i]) >= minReversePrefix && strings.HasPrefix(target, keys[i]) {
			return HeaderMatch{Header: headers[i], Tier: TierPrefix}
		}
	}
	core, _, _ := strings.Cut(target, "_")
	if core != "" {
		for i := range headers {
			if usable(i) && strings.Contains(keys[i], core) {
				return HeaderMatch{Header: headers[i], Tier: TierToken}
			}
		}
	}
	return HeaderMatch{}
}

// ResolvedFields maps each semantic field to its header match for one dataset.
type ResolvedFields [fieldCount]HeaderMatch

// Header returns the raw header of f, or "" when the field is absent.
func (r ResolvedFields) Header(f Field) string {
	if f <= FieldNone || f >= fieldCount {
		return ""
	}
	return r[f].Header
}

// ResolveFields resolves every semantic field once. When two fields land on the
// same header, the field with the stronger tier keeps it and the other one is
// resolved again with the claimed headers excluded.
func ResolveFields(headers []string, candidates FieldCandidates) ResolvedFields {
	candidates = candidates.WithDefaults()
	var out ResolvedFields

	best := func(f Field, exclude map[string]struct{}) HeaderMatch {
		var pick HeaderMatch
		for _, name := range candidates.forField(f) {
			m := resolveHeaderExcluding(name, headers, exclude)
			if !m.Found() {
				continue
			}
			if !pick.Found() || m.Tier < pick.Tier {
				pick = m
			}
			if pick.Tier == TierExact {
				break
			}
		}
		return pick
	}

	type pending struct {
		field Field
		match HeaderMatch
	}
	order := make([]pending, 0, fieldCount-1)
	for f := FieldSiteName; f < fieldCount; f++ {
		order = append(order, pending{field: f, match: best(f, nil)})
	}
	sort.SliceStable(order, func(i, j int) bool {
		ti, tj := order[i].match.Tier, order[j].match.Tier
		if ti == TierNone || tj == TierNone {
			return ti != TierNone && tj == TierNone
		}
		return ti < tj
	})

	claimed := make(map[string]struct{})
	for _, p := range order {
		m := p.match
		if m.Found() {
			if _, taken := claimed[m.Header]; taken {
				m = best(p.field, claimed)
			}
		}
		if m.Found() {
			claimed[m.Header] = struct{}{}
		}
		out[p.field] = m
	}
	return out
}

// SuggestHeaders returns up to limit headers closest to name by Jaro-Winkler
// similarity over field keys, for "did you mean" messages.
func SuggestHeaders(name string, headers []string, limit int) []string {
	target := FieldKey(name)
	if target == "" || limit <= 0 {
		return nil
	}
	type scored struct {
		header string
		score  float32
	}
	list := make([]scored, 0, len(headers))
	for _, h := range headers {
		key := FieldKey(h)
		if key == "" {
			continue
		}
		sim, err := edlib.StringsSimilarity(target, key, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		list = append(list, scored{header: h, score: sim})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.header
	}
	return out
}
