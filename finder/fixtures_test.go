package finder

var sampleHeaders = []string{
	"MUNICIPIO", "COD_IE_DANE", "INSTITUCION", "COD_SEDE_DANE", "SEDE", "UBICACION", "STATUS",
	"TOTAL GENERAL", "2023 Docentes", "2024 Docentes", "2024 Estudiantes",
}

func makeDataset(headers []string, rows ...[]string) Dataset {
	ds := Dataset{Headers: headers}
	for _, values := range rows {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = values[i]
			} else {
				row[h] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func sampleDataset() Dataset {
	return makeDataset(sampleHeaders,
		[]string{"Medellín", "105001000001", "IE San José", "105001000101", "Escuela San José", "Urbana", "Activa", "1.250", "x", "", "40"},
		[]string{"Medellín", "105001000001", "IE San José", "105001000102", "Sede Rural La Loma", "Rural", "Activa", "320", "", "y", ""},
		[]string{"Envigado", "105266000010", "Colegio Alfa", "105266000110", "Escuela Alfa", "Urbana", "Cierre definitivo", "80", "", "", "12"},
		[]string{"Abriaquí", "", "", "", "Escuela Abriaquí", "Rural", "Activa", "15", "z", "w", ""},
	)
}

// twoSchools is the minimal three-column dataset used by the end-to-end cases.
func twoSchools() Dataset {
	return makeDataset([]string{"SEDE", "MUNICIPIO", "COD_SEDE_DANE"},
		[]string{"Escuela Uno", "X", "111"},
		[]string{"Escuela Dos", "X", "222"},
	)
}

func sampleIndex() *Index {
	return BuildIndex(sampleDataset(), IndexOptions{})
}
