package ingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw file bytes to UTF-8. A byte order mark selects UTF-8
// or UTF-16 and is removed. Without one, valid UTF-8 is kept as is and
// anything else is read as Windows-1252, the usual encoding of spreadsheet
// exports on Windows.
func Decode(data []byte) ([]byte, error) {
	var fallback transform.Transformer = transform.Nop
	if !utf8.Valid(stripUTF8BOM(data)) {
		fallback = charmap.Windows1252.NewDecoder()
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return out, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripUTF8BOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
