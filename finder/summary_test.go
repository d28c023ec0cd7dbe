package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	idx := sampleIndex()
	s := Summarize(idx.Records)
	assert.Equal(t, 4, s.Sites)
	assert.Equal(t, 4, s.Entities)
	assert.InDelta(t, 1250+320+80+15, s.TotalSum, 1e-9)
	assert.Equal(t, []MunicipalityCount{{"Medellín", 2}, {"Abriaquí", 1}, {"Envigado", 1}}, s.Municipalities)
	assert.Equal(t, []MunicipalityCount{{"Rural", 2}, {"Urbana", 2}}, s.Locations)
	assert.Equal(t, []MunicipalityCount{{"Activa", 3}, {"Cierre definitivo", 1}}, s.Statuses)
}

func TestSummarize_MissingMunicipality(t *testing.T) {
	ds := makeDataset([]string{"SEDE", "MUNICIPIO"}, []string{"A", ""}, []string{"B", "X"})
	s := Summarize(BuildIndex(ds, IndexOptions{}).Records)
	assert.Contains(t, s.Municipalities, MunicipalityCount{Name: NoMunicipality, Count: 1})
	assert.Zero(t, Summarize(nil).Sites)
}

func TestMunicipalities_SortedIgnoringAccents(t *testing.T) {
	ds := makeDataset([]string{"SEDE", "MUNICIPIO"},
		[]string{"a", "Zaragoza"},
		[]string{"b", "Ábriaquí"},
		[]string{"c", "Medellín"},
		[]string{"d", "Zaragoza"},
		[]string{"e", ""},
	)
	got := Municipalities(BuildIndex(ds, IndexOptions{}))
	assert.Equal(t, []string{"Ábriaquí", "Medellín", "Zaragoza"}, got)
	assert.Nil(t, Municipalities(nil))
}

func TestFilterByMunicipality(t *testing.T) {
	idx := sampleIndex()
	got := FilterByMunicipality(idx, " Medellín ")
	require.Len(t, got, 2)
	assert.Equal(t, "Escuela San José", got[0].Name())
	assert.Empty(t, FilterByMunicipality(idx, "medellin"))
	assert.Empty(t, FilterByMunicipality(idx, ""))
}
