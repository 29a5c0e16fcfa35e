package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"phishguard/features"
)

// ErrDataset reports a training table that does not have the expected
// shape.
var ErrDataset = errors.New("invalid dataset")

// LabelColumn is the header of the target column.
const LabelColumn = "class"

// LoadDataset reads a labelled table from a .csv or .xlsx file. Columns are
// matched by header name, so extra columns (such as a leading row index) are
// ignored and column order does not matter.
func LoadDataset(path string) ([]Sample, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadSpreadsheet(path)
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer file.Close()
		return ReadCSV(file)
	}
}

// ReadCSV parses a dataset in CSV form.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	return parseRows(rows)
}

func loadSpreadsheet(path string) ([]Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	return parseRows(rows)
}

// columnIndex maps each vector position and the label to a header column.
func columnIndex(header []string) ([features.Size]int, int, error) {
	var cols [features.Size]int
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.TrimSpace(h)] = i
	}
	for i, name := range features.Names() {
		c, ok := byName[name]
		if !ok {
			return cols, 0, fmt.Errorf("%w: missing column %q", ErrDataset, name)
		}
		cols[i] = c
	}
	label, ok := byName[LabelColumn]
	if !ok {
		return cols, 0, fmt.Errorf("%w: missing column %q", ErrDataset, LabelColumn)
	}
	return cols, label, nil
}

func parseRows(rows [][]string) ([]Sample, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataset)
	}
	cols, label, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d columns, header has %d", ErrDataset, line, len(row), len(rows[0]))
		}
		var s Sample
		for i, c := range cols {
			v, err := parseScore(row[c])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrDataset, line, features.Names()[i], err)
			}
			s.Vector[i] = v
		}
		if s.Label, err = parseScore(row[label]); err != nil || s.Label == features.Suspicious {
			return nil, fmt.Errorf("%w: row %d has label %q", ErrDataset, line, row[label])
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataset)
	}
	return samples, nil
}

func parseScore(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if v < features.Phishing || v > features.Legitimate {
		return 0, fmt.Errorf("value %d out of range", v)
	}
	return v, nil
}
