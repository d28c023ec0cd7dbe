package finder

// CategoryAlias is an allow-listed indicator header. A query that matches the
// header name or one of its aliases reaches every group whose headers contain
// the header name, even when the group's base label reads differently.
type CategoryAlias struct {
	Header  string   `json:"header" toml:"header"`
	Aliases []string `json:"aliases,omitempty" toml:"aliases,omitempty"`
}

// DefaultCategoryAllowList returns the indicator headers of the departmental
// education dataset.
func DefaultCategoryAllowList() []CategoryAlias {
	return []CategoryAlias{
		{Header: "2022 ERA"},
		{Header: "2023 Docentes"},
		{Header: "2023 Estudiantes"},
		{Header: "2024 Docentes"},
		{Header: "2024 Estudiantes"},
		{Header: "2025 Docentes"},
		{Header: "2025 Estudiantes"},
		{Header: "2022 ESC_VIDA", Aliases: []string{"escuela de vida"}},
		{Header: "2023 ESC_VIDA", Aliases: []string{"escuela de vida"}},
		{Header: "2024 ESC_VIDA", Aliases: []string{"escuela de vida"}},
		{Header: "2025 ESC_VIDA", Aliases: []string{"escuela de vida"}},
		{Header: "2024 NIDO"},
		{Header: "2025 NIDO"},
		{Header: "BATUTA 2025"},
		{Header: "ATAL 2025"},
		{Header: "FCC 2025"},
		{Header: "PASC 2025"},
		{Header: "MAMM 2025"},
		{Header: "BECA UDEA 2025", Aliases: []string{"becas"}},
		{Header: "PC 2023", Aliases: []string{"computadores"}},
		{Header: "PC 2024", Aliases: []string{"computadores"}},
		{Header: "Bibliográfica (Dotación)", Aliases: []string{"biblioteca"}},
		{Header: "Deportiva (Dotación)"},
		{Header: "INFRAEST. Gob", Aliases: []string{"infraestructura"}},
		{Header: "Legalización Predio Resolución de sana posesión", Aliases: []string{"predios"}},
		{Header: "Bienestar Maestro"},
		{Header: "SENA (Oferta)"},
		{Header: "COMFAMA inspiración"},
		{Header: "AGUA (Alianza por el Agua)"},
		{Header: "Agua Fund.EPM"},
		{Header: "Agua potable"},
		{Header: "Conectividad", Aliases: []string{"internet"}},
		{Header: "Embellecimiento Escuelas"},
	}
}

func cloneAllowList(list []CategoryAlias) []CategoryAlias {
	if list == nil {
		return nil
	}
	out := make([]CategoryAlias, len(list))
	for i, entry := range list {
		out[i] = CategoryAlias{Header: entry.Header, Aliases: cloneStrings(entry.Aliases)}
	}
	return out
}

// compiledAlias holds the normalized forms used while matching.
type compiledAlias struct {
	fieldKey string
	names    []string
}

func compileAllowList(list []CategoryAlias) []compiledAlias {
	out := make([]compiledAlias, 0, len(list))
	for _, entry := range list {
		fk := FieldKey(entry.Header)
		if fk == "" {
			continue
		}
		c := compiledAlias{fieldKey: fk}
		if k := SearchKey(entry.Header); k != "" {
			c.names = append(c.names, k)
		}
		for _, alias := range entry.Aliases {
			if k := SearchKey(alias); k != "" {
				c.names = append(c.names, k)
			}
		}
		out = append(out, c)
	}
	return out
}
