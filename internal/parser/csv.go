package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/ragdesk/internal/doctree"
)

// CSVParser handles CSV files. The first record is the header; every data
// row becomes one line of "header: value" pairs joined by " | ".
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Filename: filename,
		Title:    trimExt(filename, ".csv"),
	}
	if len(records) < 2 {
		return tree, nil
	}

	headers := records[0]
	lines := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		lines = append(lines, csvRow(headers, row))
	}

	tree.Children = []*doctree.DocNode{{Text: strings.Join(lines, "\n"), Page: 1}}
	return tree, nil
}

// csvRow pairs each header with its cell. Missing cells are empty; extra
// cells get a positional column name.
func csvRow(headers, row []string) string {
	n := max(len(headers), len(row))
	pairs := make([]string, 0, n)
	for i := range n {
		col := fmt.Sprintf("column_%d", i+1)
		if i < len(headers) && headers[i] != "" {
			col = headers[i]
		}
		val := ""
		if i < len(row) {
			val = row[i]
		}
		pairs = append(pairs, col+": "+val)
	}
	return strings.Join(pairs, " | ")
}
