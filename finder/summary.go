package finder

import (
	"sort"
	"strings"
)

// NoMunicipality labels rows without a municipality in summaries.
const NoMunicipality = "SIN MUNICIPIO"

const summaryTopMunicipalities = 8

// Summary holds the dashboard KPIs of a record set.
type Summary struct {
	Sites          int                 `json:"sites"`
	Entities       int                 `json:"entities"`
	TotalSum       float64             `json:"totalSum"`
	Municipalities []MunicipalityCount `json:"municipalities"`
	Locations      []MunicipalityCount `json:"locations,omitempty"`
	Statuses       []MunicipalityCount `json:"statuses,omitempty"`
}

// Summarize computes KPIs over records. Municipalities are capped at the eight
// largest; locations and statuses are listed in full.
func Summarize(records []*RowRecord) Summary {
	var s Summary
	byMuni := make(map[string]int)
	byLocation := make(map[string]int)
	byStatus := make(map[string]int)
	entities := make(map[EntityKey]struct{}, len(records))
	for _, rec := range records {
		s.Sites++
		s.TotalSum += rec.Total
		entities[rec.Key] = struct{}{}
		muni := rec.Value(FieldMunicipality)
		if muni == "" {
			muni = NoMunicipality
		}
		byMuni[muni]++
		if loc := rec.Value(FieldLocation); loc != "" {
			byLocation[loc]++
		}
		if st := rec.Value(FieldStatus); st != "" {
			byStatus[st]++
		}
	}
	s.Entities = len(entities)
	s.Municipalities = topCounts(byMuni, summaryTopMunicipalities)
	s.Locations = topCounts(byLocation, 0)
	s.Statuses = topCounts(byStatus, 0)
	return s
}

// Municipalities lists the distinct municipality names of idx, sorted ignoring
// case and accents.
func Municipalities(idx *Index) []string {
	if idx == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range idx.Records {
		name := rec.Value(FieldMunicipality)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := SearchKey(out[i]), SearchKey(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i] < out[j]
	})
	return out
}

// FilterByMunicipality returns the records whose municipality equals name after
// trimming. An empty name selects nothing.
func FilterByMunicipality(idx *Index, name string) []*RowRecord {
	name = strings.TrimSpace(name)
	if idx == nil || name == "" {
		return nil
	}
	var out []*RowRecord
	for _, rec := range idx.Records {
		if rec.Value(FieldMunicipality) == name {
			out = append(out, rec)
		}
	}
	return out
}
