package finder

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoHeader is returned when a source has no non-empty line to use as header.
	ErrNoHeader = errors.New("no header line found")
	// ErrEmptyDataset is returned when a dataset has no columns.
	ErrEmptyDataset = errors.New("dataset has no columns")
	// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// LoadOptions controls header detection.
type LoadOptions struct {
	// Comma overrides the delimiter derived from the file extension.
	Comma rune
	// HeaderMarker is searched in the first HeaderScanLines non-empty lines; the
	// first line containing it is the header. Otherwise the first non-empty line is.
	HeaderMarker    string
	HeaderScanLines int
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.HeaderMarker == "" {
		o.HeaderMarker = defaultHeaderMarker
	}
	if o.HeaderScanLines <= 0 {
		o.HeaderScanLines = defaultHeaderScanLines
	}
	return o
}

// ReadDataset loads a .csv, .tsv, .txt or .xlsx file.
func ReadDataset(path string, opts LoadOptions) (Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		data, err := os.ReadFile(path)
		if err != nil {
			return Dataset{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
		}
		ds, err := ParseWorkbook(data, opts)
		if err != nil {
			return Dataset{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		return ds, nil
	case ".csv", ".tsv", ".txt":
	default:
		return Dataset{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	comma := opts.Comma
	if comma == 0 {
		comma = ','
		if ext == ".tsv" {
			comma = '\t'
		}
	}
	ds, err := ParseDelimited(f, comma, opts)
	if err != nil {
		return Dataset{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// ParseDelimited reads delimited text into a Dataset.
func ParseDelimited(r io.Reader, comma rune, opts LoadOptions) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Dataset{}, fmt.Errorf("parse delimited: %w", err)
	}
	return buildDataset(rows, opts)
}

// ParseWorkbook reads the first sheet of an xlsx workbook that holds a header line
// with the marker, or the first non-empty sheet.
func ParseWorkbook(data []byte, opts LoadOptions) (Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Dataset{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	opts = opts.withDefaults()
	var fallback [][]string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		if _, marked := detectHeader(rows, opts); marked {
			return buildDataset(rows, opts)
		}
		if fallback == nil {
			fallback = rows
		}
	}
	if fallback == nil {
		return Dataset{}, ErrNoHeader
	}
	return buildDataset(fallback, opts)
}

func buildDataset(records [][]string, opts LoadOptions) (Dataset, error) {
	opts = opts.withDefaults()
	at, _ := detectHeader(records, opts)
	if at < 0 {
		return Dataset{}, ErrNoHeader
	}
	headers := headerNames(records[at])
	if len(headers) == 0 {
		return Dataset{}, ErrEmptyDataset
	}
	ds := Dataset{Headers: headers, Rows: make([]Row, 0, len(records)-at-1)}
	for _, rec := range records[at+1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = cleanCell(rec[i])
			} else {
				row[h] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// detectHeader returns the header line index and whether it carried the marker.
func detectHeader(records [][]string, opts LoadOptions) (int, bool) {
	marker := FieldKey(opts.HeaderMarker)
	first := -1
	scanned := 0
	for i, rec := range records {
		if blankRecord(rec) {
			continue
		}
		if first < 0 {
			first = i
		}
		if scanned >= opts.HeaderScanLines {
			break
		}
		scanned++
		if marker == "" {
			continue
		}
		for _, cell := range rec {
			if strings.Contains(FieldKey(cell), marker) {
				return i, true
			}
		}
	}
	return first, false
}

// headerNames cleans a header line. Empty cells are named C<index> and repeated
// names get a _2, _3 suffix so every column keeps its own key.
func headerNames(rec []string) []string {
	end := len(rec)
	for end > 0 && cleanCell(rec[end-1]) == "" {
		end--
	}
	out := make([]string, 0, end)
	seen := make(map[string]int, end)
	for i := 0; i < end; i++ {
		name := VisibleText(cleanCell(rec[i]))
		if name == "" {
			name = "C" + strconv.Itoa(i)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
			seen[name]++
		}
		out = append(out, name)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}
