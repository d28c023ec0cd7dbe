package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeader_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		headers   []string
		want      string
		tier      MatchTier
	}{
		{"exact", "MUNICIPIO", []string{"SEDE", "Municipio "}, "Municipio ", TierExact},
		{"exact beats contains", "SEDE", []string{"NOMBRE SEDE", "Sede"}, "Sede", TierExact},
		{"header contains target", "SEDE", []string{"MUNICIPIO", "NOMBRE SEDE"}, "NOMBRE SEDE", TierContains},
		{"target contains header on token", "COD_SEDE_DANE", []string{"SEDE_X", "Cod Sede"}, "Cod Sede", TierContains},
		{"reverse prefix", "INSTITUCION", []string{"MUNICIPIO", "Instit."}, "Instit.", TierPrefix},
		{"first token", "COD_IE_DANE", []string{"SEDE", "Código IE"}, "Código IE", TierToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := ResolveHeader(tc.canonical, tc.headers)
			require.True(t, m.Found())
			assert.Equal(t, tc.want, m.Header)
			assert.Equal(t, tc.tier, m.Tier)
		})
	}
}

func TestResolveHeader_NotFound(t *testing.T) {
	m := ResolveHeader("UBICACION", []string{"SEDE", "MUNICIPIO"})
	assert.False(t, m.Found())
	h, ok := m.Get()
	assert.False(t, ok)
	assert.Empty(t, h)

	// Short header keys never prefix-match longer names.
	assert.False(t, ResolveHeader("NOMBRE", []string{"N"}).Found())
	assert.False(t, ResolveHeader("", []string{"SEDE"}).Found())
}

func TestResolveFields_CodesDoNotShareHeaders(t *testing.T) {
	fields := ResolveFields([]string{"SEDE", "MUNICIPIO", "COD_SEDE_DANE"}, FieldCandidates{})
	assert.Equal(t, "SEDE", fields.Header(FieldSiteName))
	assert.Equal(t, "MUNICIPIO", fields.Header(FieldMunicipality))
	assert.Equal(t, "COD_SEDE_DANE", fields.Header(FieldSiteCode))
	assert.False(t, fields[FieldInstitutionCode].Found())
	assert.False(t, fields[FieldInstitution].Found())
	assert.Empty(t, fields.Header(FieldLocation))
}

func TestResolveFields_StrongerTierKeepsHeader(t *testing.T) {
	headers := []string{"COD_SEDE_DANE", "NOMBRE_SEDE", "COD_IE_DANE", "INSTITUCION"}
	fields := ResolveFields(headers, FieldCandidates{})
	assert.Equal(t, "COD_SEDE_DANE", fields.Header(FieldSiteCode))
	assert.Equal(t, "NOMBRE_SEDE", fields.Header(FieldSiteName))
	assert.Equal(t, "COD_IE_DANE", fields.Header(FieldInstitutionCode))
	assert.Equal(t, "INSTITUCION", fields.Header(FieldInstitution))
}

func TestResolveFields_CustomCandidates(t *testing.T) {
	headers := []string{"Nombre del establecimiento", "MUNICIPIO"}
	fields := ResolveFields(headers, FieldCandidates{SiteName: []string{"ESTABLECIMIENTO"}})
	assert.Equal(t, "Nombre del establecimiento", fields.Header(FieldSiteName))
	assert.Equal(t, "MUNICIPIO", fields.Header(FieldMunicipality))
}

func TestFieldCandidates_WithDefaults(t *testing.T) {
	c := FieldCandidates{SiteName: []string{"NOMBRE"}}.WithDefaults()
	assert.Equal(t, []string{"NOMBRE"}, c.SiteName)
	assert.Equal(t, []string{"UBICACION", "ZONA"}, c.Location)

	d := DefaultFieldCandidates()
	d.Location[0] = "changed"
	assert.Equal(t, "UBICACION", DefaultFieldCandidates().Location[0])
}

func TestSuggestHeaders(t *testing.T) {
	got := SuggestHeaders("MUNICIPO", []string{"SEDE", "MUNICIPIO", "TOTAL"}, 1)
	assert.Equal(t, []string{"MUNICIPIO"}, got)
	assert.Nil(t, SuggestHeaders("", []string{"SEDE"}, 2))
	assert.Len(t, SuggestHeaders("SEDE", []string{"SEDE", "MUNICIPIO", "TOTAL"}, 5), 3)
}
