// Package mapping proposes target schema fields for document headers.
package mapping

import (
	"context"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// Suggestion is the proposed target for one header. Target is
// schema.Unmapped when nothing matched.
type Suggestion struct {
	Header     string  `json:"header"`
	Target     string  `json:"matched_column"`
	Suggested  *string `json:"llm_suggestion"`
	Confidence float64 `json:"confidence_score"`
}

// Suggester proposes a target field for every header, in header order.
type Suggester interface {
	Suggest(ctx context.Context, headers []string) ([]Suggestion, error)
}

// Confidence levels reported by AliasSuggester.
const (
	ConfidenceExact = 1.0
	ConfidenceAlias = 0.9
	// Substring matches score between these two, scaled by how much of the
	// header the matched text covers.
	confidenceSubstringMin = 0.5
	confidenceSubstringMax = 0.8
)

// minSubstringLen keeps short aliases such as "dos" from matching inside
// unrelated words.
const minSubstringLen = 4

type candidate struct {
	key   string
	field string
	exact bool
}

// AliasSuggester matches headers against registry names, labels and
// aliases. Each target is proposed at most once; the first header to claim
// it wins.
type AliasSuggester struct {
	candidates []candidate
	byKey      map[string]candidate
}

// NewAliasSuggester builds a suggester over the given fields.
func NewAliasSuggester(fields []schema.Field) *AliasSuggester {
	s := &AliasSuggester{byKey: make(map[string]candidate)}
	add := func(text, field string, exact bool) {
		c := candidate{key: normalizeHeader(text), field: field, exact: exact}
		if c.key == "" {
			return
		}
		if prev, ok := s.byKey[c.key]; ok && (prev.exact || !exact) {
			return
		}
		s.byKey[c.key] = c
		s.candidates = append(s.candidates, c)
	}
	for _, f := range fields {
		add(f.Name, f.Name, true)
		add(f.Label, f.Name, true)
		for _, a := range f.Aliases {
			add(a, f.Name, false)
		}
	}
	return s
}

// DefaultSuggester matches against the full registry.
func DefaultSuggester() *AliasSuggester {
	return NewAliasSuggester(schema.All())
}

func (s *AliasSuggester) Suggest(ctx context.Context, headers []string) ([]Suggestion, error) {
	out := make([]Suggestion, len(headers))
	used := make(map[string]bool)

	for i, header := range headers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = Suggestion{Header: header, Target: schema.Unmapped}

		field, confidence := s.match(normalizeHeader(header), used)
		if field == "" {
			continue
		}
		used[field] = true
		target := field
		out[i].Target = field
		out[i].Suggested = &target
		out[i].Confidence = confidence
	}
	return out, nil
}

func (s *AliasSuggester) match(key string, used map[string]bool) (string, float64) {
	if key == "" {
		return "", 0
	}

	if c, ok := s.byKey[key]; ok && !used[c.field] {
		if c.exact {
			return c.field, ConfidenceExact
		}
		return c.field, ConfidenceAlias
	}

	// Longest candidate contained in the header wins.
	var best candidate
	for _, c := range s.candidates {
		if used[c.field] || len(c.key) < minSubstringLen || len(c.key) <= len(best.key) {
			continue
		}
		if strings.Contains(key, c.key) {
			best = c
		}
	}
	if best.field == "" {
		return "", 0
	}

	coverage := float64(len(best.key)) / float64(len(key))
	conf := confidenceSubstringMin + (confidenceSubstringMax-confidenceSubstringMin)*coverage
	return best.field, math.Round(conf*100) / 100
}

// normalizeHeader lowercases, strips diacritics and drops everything that
// is not a letter or digit, so "Date-of Birth" and "date_of_birth" compare
// equal.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(header) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
