package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Cell is one header/value pair of a raw row.
type Cell struct {
	Header string
	Value  any
}

// RawRow is an ordered mapping from source header to raw cell value. Values
// are strings, json.Number, float64, bool, nil or time.Time depending on the
// extractor that produced them.
type RawRow []Cell

// RowFromStrings builds a raw row from parallel header and value slices.
// Missing trailing values are treated as empty strings.
func RowFromStrings(headers, values []string) RawRow {
	row := make(RawRow, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		row[i] = Cell{Header: h, Value: v}
	}
	return row
}

// Get returns the value for header and whether the header is present.
func (r RawRow) Get(header string) (any, bool) {
	for _, c := range r {
		if c.Header == header {
			return c.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as a JSON object in header order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Header)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", c.Header, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Numbers are kept as
// json.Number so their textual form survives.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("raw row must be a JSON object")
	}

	row := RawRow{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		row = append(row, Cell{Header: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = row
	return nil
}
