package core

// normalize.go converts one raw cell into a typed value for its target field.
//
// Every failure is returned as a *FieldError carrying a fixed reason string;
// Normalize never panics. Values that are already typed (time.Time,
// decimal.Decimal, Value) pass through unchanged.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// Field error reasons.
const (
	ReasonEmpty         = "empty or invalid value"
	ReasonBadDate       = "unrecognized date format"
	ReasonBadNumber     = "invalid numeric value"
	ReasonBadGender     = "invalid gender value"
	ReasonUnsupportType = "unsupported value type"
)

// FieldError is a field-level normalization failure.
type FieldError struct {
	Field  string // target field
	Value  string // raw value as text
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

// Value is a normalized cell.
type Value struct {
	Field  string
	Kind   schema.Kind
	Text   string
	Date   time.Time
	Amount decimal.Decimal
}

// String renders the value the way it is stored in text columns.
func (v Value) String() string {
	switch v.Kind {
	case schema.KindDate:
		return v.Date.Format("2006-01-02")
	case schema.KindAmount:
		return v.Amount.String()
	default:
		return v.Text
	}
}

// emptySentinels are placeholder strings that count as no value.
var emptySentinels = map[string]bool{
	"null":    true,
	"nil":     true,
	"none":    true,
	"--":      true,
	"unknown": true,
}

// isoLayouts are tried when a date value contains "T".
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// dateLayouts are tried in order; the first successful parse wins.
// No attempt is made to tell MM/DD from DD/MM.
var dateLayouts = []string{
	"2006-1-2",    // YYYY-MM-DD
	"1/2/2006",    // MM/DD/YYYY
	"2-Jan-2006",  // DD-Mon-YYYY
	"Jan 2, 2006", // Mon DD, YYYY
	"20060102",    // YYYYMMDD
}

var genderCodes = map[string]string{
	"m":      "M",
	"male":   "M",
	"f":      "F",
	"female": "F",
	"o":      "O",
	"other":  "O",
}

// Normalize converts raw into a typed value for field. It returns a
// *FieldError when the value cannot be used.
func Normalize(field string, raw any) (Value, error) {
	kind := schema.KindOf(field)

	switch v := raw.(type) {
	case Value:
		return v, nil
	case time.Time:
		if kind == schema.KindDate {
			return Value{Field: field, Kind: kind, Date: v}, nil
		}
	case decimal.Decimal:
		if kind == schema.KindAmount {
			return Value{Field: field, Kind: kind, Amount: v}, nil
		}
	case float64:
		if kind == schema.KindAmount {
			return Value{Field: field, Kind: kind, Amount: decimal.NewFromFloat(v)}, nil
		}
	case json.Number:
		if kind == schema.KindAmount {
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return Value{Field: field, Kind: kind, Amount: d}, nil
			}
		}
	}

	s, ok := rawString(raw)
	if !ok {
		return Value{}, &FieldError{Field: field, Value: fmt.Sprint(raw), Reason: ReasonUnsupportType}
	}
	s = strings.TrimSpace(s)
	if s == "" || emptySentinels[strings.ToLower(s)] {
		return Value{}, &FieldError{Field: field, Value: s, Reason: ReasonEmpty}
	}

	switch kind {
	case schema.KindDate:
		t, ok := parseDate(s)
		if !ok {
			return Value{}, &FieldError{Field: field, Value: s, Reason: ReasonBadDate}
		}
		return Value{Field: field, Kind: kind, Date: t}, nil

	case schema.KindAmount:
		d, err := decimal.NewFromString(stripNonNumeric(s))
		if err != nil {
			return Value{}, &FieldError{Field: field, Value: s, Reason: ReasonBadNumber}
		}
		return Value{Field: field, Kind: kind, Amount: d}, nil

	case schema.KindGender:
		code, ok := genderCodes[strings.ToLower(s)]
		if !ok {
			switch s {
			case "M", "F", "O":
				code = s
			default:
				return Value{}, &FieldError{Field: field, Value: s, Reason: ReasonBadGender}
			}
		}
		return Value{Field: field, Kind: kind, Text: code}, nil
	}

	return Value{Field: field, Kind: schema.KindText, Text: s}, nil
}

// rawString renders scalar raw values as text.
func rawString(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format("2006-01-02"), true
	case decimal.Decimal:
		return v.String(), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// parseDate tries the ISO layouts when s contains "T", then the fixed
// layouts. Parsed values are truncated to the calendar date in UTC.
func parseDate(s string) (time.Time, bool) {
	if strings.Contains(s, "T") {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return dateOnly(t), true
			}
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// stripNonNumeric keeps only digits and decimal points. A leading minus
// sign is dropped along with everything else, so negative amounts load as
// their absolute value.
func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
