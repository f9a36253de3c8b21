package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/mintaro/internal/doc"
)

// MaxCSVRows caps the rows imported from one CSV file, header included.
const MaxCSVRows = 500

// CSVParser imports a CSV file as a table whose first record is the header
// row. Short records are padded with empty cells.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := &Document{Title: titleOf(filename), Root: doc.NewDocument()}
	if len(records) == 0 {
		return out, nil
	}
	if len(records) > MaxCSVRows {
		records = records[:MaxCSVRows]
	}

	cols := 0
	for _, rec := range records {
		cols = max(cols, len(rec))
	}
	if cols == 0 {
		return out, nil
	}

	t := doc.NewTableNode(len(records), cols)
	for i, rec := range records {
		row := t.Children[i]
		for j, value := range rec {
			cell := row.Children[j]
			if value != "" {
				cell.Children[0].Text = value
			}
		}
		if i == 0 {
			for _, cell := range row.Children {
				cell.Header = true
			}
		}
	}
	out.Root.AppendChild(t)
	return out, nil
}
