package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionTable(t *testing.T) {
	idx := sampleIndex()
	m, ok := CategoryByLabel(idx, "Docentes")
	require.True(t, ok)

	tbl := m.Selection().Table()
	assert.Equal(t, []string{
		"MUNICIPIO", "INSTITUCIÓN", "SEDE", "Código Sede", "UBICACIÓN", "Estado", "TOTAL",
		"2023 Docentes", "2024 Docentes",
	}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{
		"Medellín", "IE San José", "Escuela San José", "105001000101", "Urbana", "Activa", "1250", "x", "",
	}, tbl.Rows[0])
	assert.Equal(t, "S:105001000101", tbl.Keys[0])
	for _, row := range tbl.Rows {
		assert.Len(t, row, len(tbl.Columns))
	}
}

func TestSelectionTable_Empty(t *testing.T) {
	tbl := Selection{}.Table()
	assert.Len(t, tbl.Columns, len(BaseColumns)+1)
	assert.Empty(t, tbl.Rows)
}

func TestFormatTotal(t *testing.T) {
	assert.Equal(t, "1250", FormatTotal(1250))
	assert.Equal(t, "12.5", FormatTotal(12.5))
	assert.Equal(t, "0", FormatTotal(0))
}
