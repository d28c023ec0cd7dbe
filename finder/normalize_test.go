package finder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Múnicipio", "municipio"},
		{"  Escuela   Uno!! ", "escuela uno"},
		{"I.E. San José - Sede\tPrincipal", "i e san jose sede principal"},
		{"ÑANDÚ", "nandu"},
		{"a b", "a b"},
		{"", ""},
		{"---", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SearchKey(tc.in))
		})
	}
}

func TestSearchKey_AccentInsensitive(t *testing.T) {
	assert.Equal(t, SearchKey("Municipio"), SearchKey("Múnicipio"))
	assert.Equal(t, SearchKey("ABRIAQUI"), SearchKey("Abriaquí"))
}

func TestFieldKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cód. Sede DANE", "COD_SEDE_DANE"},
		{"__Total General__", "TOTAL_GENERAL"},
		{"municipio", "MUNICIPIO"},
		{"Ubicación (zona)", "UBICACION_ZONA"},
		{"2024 Docentes", "2024_DOCENTES"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FieldKey(tc.in))
		})
	}
}

func TestNormalizers_Idempotent(t *testing.T) {
	inputs := []string{"Múnicipio", "  I.E. Sede #3 ", "Cód. Sede DANE", "Bibliográfica (Dotación)", "a\x00b\nc"}
	for _, in := range inputs {
		once := SearchKey(in)
		assert.Equal(t, once, SearchKey(once), "search key of %q", in)
		field := FieldKey(in)
		assert.Equal(t, field, FieldKey(field), "field key of %q", in)
	}
}

func TestVisibleText(t *testing.T) {
	assert.Equal(t, "a b c", VisibleText("  a\tb\n c "))
	assert.Equal(t, "Medellín", VisibleText("Medellín\x00"))
	assert.Equal(t, "", VisibleText(""))
}
