// Package ingest extracts headers and rows from uploaded claim documents.
//
// Delimited text (CSV, TSV, TXT) and Excel workbooks (XLSX) are supported.
// Every cell is returned as text; typing happens later when a row is
// normalized against its confirmed mapping.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoHeaders         = errors.New("no headers found")
	ErrEmptyHeader       = errors.New("empty header")
	ErrTooManyColumns    = errors.New("too many columns")
	ErrDuplicateHeader   = errors.New("duplicate header")
)

// DefaultMaxColumns is the widest document accepted.
const DefaultMaxColumns = 50

// Document is an extracted table.
type Document struct {
	Headers []string
	Rows    [][]string
}

// Sample returns at most n rows.
func (d *Document) Sample(n int) [][]string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Options limit what Extract accepts.
type Options struct {
	MaxBytes   int64 // 0 means unlimited
	MaxColumns int   // 0 means DefaultMaxColumns
}

// Extensions lists the accepted file extensions.
var Extensions = []string{".csv", ".tsv", ".txt", ".xlsx"}

// Supported reports whether a file name has an accepted extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extract reads the document in r, choosing the parser from the extension
// of name, and validates its headers.
func Extract(name string, r io.Reader, opts Options) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := readLimited(r, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var doc *Document
	switch ext {
	case ".xlsx":
		doc, err = parseWorkbook(data)
	case ".tsv":
		doc, err = parseDelimited(data, '\t')
	case ".csv":
		doc, err = parseDelimited(data, ',')
	default:
		doc, err = parseDelimited(data, sniffDelimiter(data))
	}
	if err != nil {
		return nil, err
	}

	for i, h := range doc.Headers {
		doc.Headers[i] = CleanHeader(h)
	}

	maxCols := opts.MaxColumns
	if maxCols <= 0 {
		maxCols = DefaultMaxColumns
	}
	if err := ValidateHeaders(doc.Headers, maxCols); err != nil {
		return nil, err
	}

	return doc, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}
	return data, nil
}

// CleanHeader trims a header, unwraps spreadsheet ="..." text formulas and
// normalizes it to NFC so visually equal headers compare equal.
func CleanHeader(h string) string {
	h = strings.TrimSpace(norm.NFC.String(h))
	if strings.HasPrefix(h, "=\"") && strings.HasSuffix(h, "\"") && len(h) >= 3 {
		h = h[2 : len(h)-1]
	}
	return strings.TrimSpace(h)
}

// ValidateHeaders requires at least one header, no blank header, at most
// maxColumns headers and no duplicates.
func ValidateHeaders(headers []string, maxColumns int) error {
	if len(headers) == 0 {
		return ErrNoHeaders
	}
	if len(headers) > maxColumns {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyColumns, len(headers), maxColumns)
	}

	seen := make(map[string]bool, len(headers))
	var dups []string
	for i, h := range headers {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%w at column %d", ErrEmptyHeader, i+1)
		}
		if seen[h] {
			dups = append(dups, h)
		}
		seen[h] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateHeader, strings.Join(dups, ", "))
	}
	return nil
}

// isBlankRow reports whether every cell is empty after trimming.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// padRow makes row exactly width cells wide.
func padRow(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
