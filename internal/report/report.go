// Package report builds the per-import and cross-import reports served by
// the API.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/claimsimport/internal/core"
	db "github.com/JonMunkholm/claimsimport/internal/database"
	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// SampleValues is how many distinct inserted values a column report lists.
const SampleValues = 10

// Querier is the subset of database queries the reports read.
// *database.Queries satisfies it.
type Querier interface {
	GetFileImport(ctx context.Context, importID pgtype.UUID) (db.FileImport, error)
	ListFileImports(ctx context.Context) ([]db.FileImport, error)
	ListProcessingLogs(ctx context.Context, importID pgtype.UUID) ([]db.ProcessingLog, error)
	CountImportEntities(ctx context.Context, importID pgtype.UUID) (db.CountImportEntitiesRow, error)
	ColumnStats(ctx context.Context, importID pgtype.UUID, table, column string, extraKey bool, limit int) (db.ColumnStatsRow, error)
	AnalyticsSummary(ctx context.Context) (db.AnalyticsSummaryRow, error)
}

// Builder assembles reports from a Querier.
type Builder struct {
	q Querier
}

func NewBuilder(q Querier) *Builder {
	return &Builder{q: q}
}

// FileReport describes the outcome of one import.
type FileReport struct {
	File           core.Import       `json:"file_info"`
	Statistics     ImportStatistics  `json:"statistics"`
	ColumnMappings []ColumnReport    `json:"column_mappings"`
	Summary        ProcessingSummary `json:"processing_summary"`
}

// ImportStatistics are the import counters plus the entities linked to its
// claims.
type ImportStatistics struct {
	TotalFields      int64             `json:"total_fields"`
	NormalizedFields int64             `json:"normalized_fields"`
	FailedFields     int64             `json:"failed_fields"`
	SuccessRate      string            `json:"success_rate"`
	Entities         core.EntityCounts `json:"entities_created"`
}

// ColumnReport describes how one header was mapped and what it loaded.
type ColumnReport struct {
	Header           string   `json:"header"`
	MatchedColumn    string   `json:"matched_column"`
	Suggestion       *string  `json:"llm_suggestion"`
	Confidence       *float64 `json:"confidence_score"`
	UserEdited       bool     `json:"user_edited"`
	RecordsPopulated int64    `json:"records_populated"`
	EmptyValues      int64    `json:"empty_values"`
	InsertedValues   []string `json:"inserted_values"`
}

// ProcessingSummary counts columns by how they were mapped and filled.
type ProcessingSummary struct {
	TotalHeaders       int `json:"total_file_headers"`
	SuggestedMapped    int `json:"llm_mapped_columns"`
	ManuallyMapped     int `json:"manually_mapped_columns"`
	Unmapped           int `json:"unmapped_columns"`
	FullyPopulated     int `json:"fully_populated_columns"`
	PartiallyPopulated int `json:"partially_populated_columns"`
	EmptyColumns       int `json:"empty_columns"`
}

// FileReport builds the report for one import. It returns
// core.ErrImportNotFound for an unknown id.
func (b *Builder) FileReport(ctx context.Context, id uuid.UUID) (*FileReport, error) {
	pgID := core.ToPgUUID(id)

	row, err := b.q.GetFileImport(ctx, pgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrImportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}
	imp := core.ImportFromRow(row)

	counts, err := b.q.CountImportEntities(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}

	logs, err := b.q.ListProcessingLogs(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	rep := &FileReport{
		File: imp,
		Statistics: ImportStatistics{
			TotalFields:      imp.FieldsSeen,
			NormalizedFields: imp.FieldsNormalized,
			FailedFields:     imp.FieldsFailed,
			SuccessRate:      core.SuccessRate(int(imp.FieldsNormalized), int(imp.FieldsSeen)),
			Entities: core.EntityCounts{
				Patients:  int(counts.Patients),
				Providers: int(counts.Providers),
				Policies:  int(counts.Policies),
				Claims:    int(counts.Claims),
				Diagnoses: int(counts.Diagnoses),
			},
		},
		ColumnMappings: make([]ColumnReport, 0, len(logs)),
	}
	rep.Summary.TotalHeaders = len(logs)

	for _, l := range logs {
		col := ColumnReport{
			Header:         l.Header,
			MatchedColumn:  l.FinalMapping,
			UserEdited:     l.UserEditedMapping,
			InsertedValues: []string{},
		}
		if l.LlmSuggestion.Valid {
			s := l.LlmSuggestion.String
			col.Suggestion = &s
		}
		if l.ConfidenceScore.Valid {
			c := l.ConfidenceScore.Float64
			col.Confidence = &c
		}

		if l.UserEditedMapping {
			rep.Summary.ManuallyMapped++
		}
		if col.Suggestion != nil && *col.Suggestion == l.FinalMapping {
			rep.Summary.SuggestedMapped++
		}

		if schema.IsUnmapped(l.FinalMapping) {
			rep.Summary.Unmapped++
			rep.Summary.EmptyColumns++
			rep.ColumnMappings = append(rep.ColumnMappings, col)
			continue
		}

		table, column, extra := Location(l.FinalMapping)
		stats, err := b.q.ColumnStats(ctx, pgID, table, column, extra, SampleValues)
		if err != nil {
			return nil, fmt.Errorf("column stats for %q: %w", l.Header, err)
		}
		col.RecordsPopulated = stats.Populated
		col.EmptyValues = stats.Empty
		if stats.Samples != nil {
			col.InsertedValues = stats.Samples
		}

		switch Fill(stats.Populated, stats.Empty) {
		case FillFull:
			rep.Summary.FullyPopulated++
		case FillPartial:
			rep.Summary.PartiallyPopulated++
		default:
			rep.Summary.EmptyColumns++
		}
		rep.ColumnMappings = append(rep.ColumnMappings, col)
	}

	return rep, nil
}

// Location returns the table and column a target field is stored in.
// Fields outside the registry live under a key of claim.extra.
func Location(target string) (table, column string, extraKey bool) {
	f, ok := schema.Lookup(target)
	if !ok {
		return "claim", target, true
	}
	return TableOf(f.Entity), f.Column, false
}

// TableOf returns the table an entity is stored in.
func TableOf(e schema.Entity) string {
	switch e {
	case schema.EntityPatient:
		return "patient"
	case schema.EntityProvider:
		return "provider"
	case schema.EntityPolicy:
		return "policy"
	case schema.EntityDiagnosis:
		return "claim_diagnosis"
	default:
		return "claim"
	}
}

// FillLevel classifies how completely a column was populated.
type FillLevel int

const (
	FillEmpty FillLevel = iota
	FillPartial
	FillFull
)

// Fill is Full when every linked record has a value, Partial when some do
// and Empty otherwise.
func Fill(populated, empty int64) FillLevel {
	switch {
	case populated > 0 && empty == 0:
		return FillFull
	case populated > 0:
		return FillPartial
	default:
		return FillEmpty
	}
}
