package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// parseDelimited reads delimited text. The first record is the header row;
// blank records are dropped and short or long records are padded or cut to
// the header width.
func parseDelimited(data []byte, delim rune) (*Document, error) {
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeaders
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	doc := &Document{Headers: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isBlankRow(rec) {
			continue
		}
		doc.Rows = append(doc.Rows, padRow(rec, len(header)))
	}
	return doc, nil
}

// sniffDelimiter picks tab when the first line has more tabs than commas.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) {
		return '\t'
	}
	return ','
}
