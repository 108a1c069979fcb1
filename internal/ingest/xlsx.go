package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// parseWorkbook reads the first sheet of an XLSX workbook. Cells come back
// as their formatted text.
func parseWorkbook(data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeaders
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// Leading blank rows are common above the header in exported reports.
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrNoHeaders
	}

	doc := &Document{Headers: rows[0]}
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		doc.Rows = append(doc.Rows, padRow(row, len(doc.Headers)))
	}
	return doc, nil
}
