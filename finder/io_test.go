package finder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseDelimited_DetectsHeaderLine(t *testing.T) {
	src := "Reporte de sedes,,,\n" +
		",,,\n" +
		"MUNICIPIO,SEDE,,SEDE\n" +
		"X, Escuela Uno ,a,dup\n" +
		",,,\n" +
		"Y,Escuela Dos\n"
	ds, err := ParseDelimited(strings.NewReader(src), ',', LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"MUNICIPIO", "SEDE", "C2", "SEDE_2"}, ds.Headers)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, Row{"MUNICIPIO": "X", "SEDE": "Escuela Uno", "C2": "a", "SEDE_2": "dup"}, ds.Rows[0])
	assert.Equal(t, Row{"MUNICIPIO": "Y", "SEDE": "Escuela Dos", "C2": "", "SEDE_2": ""}, ds.Rows[1])
}

func TestParseDelimited_FirstNonEmptyLineWithoutMarker(t *testing.T) {
	src := "\nNOMBRE;CODIGO\nEscuela;1\n"
	ds, err := ParseDelimited(strings.NewReader(src), ';', LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOMBRE", "CODIGO"}, ds.Headers)
	assert.Len(t, ds.Rows, 1)
}

func TestParseDelimited_MarkerBeyondScanWindow(t *testing.T) {
	src := "a\nb\nc\nMUNICIPIO,SEDE\nX,Y\n"
	ds, err := ParseDelimited(strings.NewReader(src), ',', LoadOptions{HeaderScanLines: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ds.Headers)
}

func TestParseDelimited_Errors(t *testing.T) {
	_, err := ParseDelimited(strings.NewReader(""), ',', LoadOptions{})
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ParseDelimited(strings.NewReader("\n,,\n"), ',', LoadOptions{})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseDelimited_ByteOrderMark(t *testing.T) {
	src := "\ufeffMUNICIPIO,SEDE\nX,Escuela\n"
	ds, err := ParseDelimited(strings.NewReader(src), ',', LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "MUNICIPIO", ds.Headers[0])
}

func TestReadDataset_TSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sedes.tsv")
	require.NoError(t, os.WriteFile(path, []byte("MUNICIPIO\tSEDE\nX\tEscuela, Uno\n"), 0o644))
	ds, err := ReadDataset(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Escuela, Uno", ds.Rows[0]["SEDE"])
}

func TestReadDataset_Unsupported(t *testing.T) {
	_, err := ReadDataset("sedes.json", LoadOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadDataset(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDataset_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sedes.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("Sedes")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"notas"}))
	require.NoError(t, f.SetSheetRow("Sedes", "A1", &[]any{"Secretaría de Educación"}))
	require.NoError(t, f.SetSheetRow("Sedes", "A2", &[]any{"MUNICIPIO", "SEDE", "TOTAL GENERAL"}))
	require.NoError(t, f.SetSheetRow("Sedes", "A3", &[]any{"Medellín", "Escuela Uno", "1.250"}))
	require.NoError(t, f.SetSheetRow("Sedes", "A4", &[]any{"Envigado", "Escuela Dos"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := ReadDataset(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"MUNICIPIO", "SEDE", "TOTAL GENERAL"}, ds.Headers)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "1.250", ds.Rows[0]["TOTAL GENERAL"])
	assert.Equal(t, "", ds.Rows[1]["TOTAL GENERAL"])

	idx := BuildIndex(ds, IndexOptions{})
	assert.InDelta(t, 1250, idx.Records[0].Total, 1e-9)
}
