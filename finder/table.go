package finder

import "strconv"

// TableColumn is one fixed column of the results table.
type TableColumn struct {
	Label string
	Field Field
}

// BaseColumns are shown for every selection, before any category columns.
var BaseColumns = []TableColumn{
	{LabelMunicipality, FieldMunicipality},
	{LabelInstitution, FieldInstitution},
	{LabelSiteName, FieldSiteName},
	{LabelSiteCode, FieldSiteCode},
	{LabelLocation, FieldLocation},
	{LabelStatus, FieldStatus},
}

// LabelTotal heads the total column.
const LabelTotal = "TOTAL"

// Table is a selection flattened into display cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Keys    []string   `json:"keys"`
}

// Table renders the selection with the base columns, the total and the extra
// category columns, in that order.
func (s Selection) Table() Table {
	cols := make([]string, 0, len(BaseColumns)+1+len(s.ExtraHeaders))
	for _, c := range BaseColumns {
		cols = append(cols, c.Label)
	}
	cols = append(cols, LabelTotal)
	cols = append(cols, s.ExtraHeaders...)

	t := Table{
		Columns: cols,
		Rows:    make([][]string, 0, len(s.Records)),
		Keys:    make([]string, 0, len(s.Records)),
	}
	for _, rec := range s.Records {
		row := make([]string, 0, len(cols))
		for _, c := range BaseColumns {
			row = append(row, rec.Value(c.Field))
		}
		row = append(row, FormatTotal(rec.Total))
		for _, h := range s.ExtraHeaders {
			row = append(row, rec.Cell(h))
		}
		t.Rows = append(t.Rows, row)
		t.Keys = append(t.Keys, string(rec.Key))
	}
	return t
}

// FormatTotal prints a total without a trailing fraction when it is whole.
func FormatTotal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
