package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/filestore"
	"github.com/JonMunkholm/claimsimport/internal/ingest"
	"github.com/JonMunkholm/claimsimport/internal/logging"
	"github.com/JonMunkholm/claimsimport/internal/mapping"
	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// FileStore keeps uploaded documents for later re-extraction.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (filestore.Stored, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// ServiceOptions configure a Service. Zero values use defaults.
type ServiceOptions struct {
	Batch          BatchOptions
	Extract        ingest.Options
	SampleRows     int           // rows returned by Upload
	ProcessTimeout time.Duration // upper bound on one batch
	MaxConcurrent  int
	AcquireWait    time.Duration
}

const (
	DefaultSampleRows     = 10
	DefaultProcessTimeout = 10 * time.Minute
)

// Service is the entry point for uploading, mapping and processing claim
// documents. It is shared by the HTTP handlers and the CLI.
type Service struct {
	store     Store
	files     FileStore
	suggester mapping.Suggester
	limiter   *ImportLimiter
	batch     *Coordinator
	opts      ServiceOptions
}

// NewService wires a Service. A nil suggester uses the registry alias
// matcher.
func NewService(store Store, files FileStore, suggester mapping.Suggester, opts ServiceOptions) *Service {
	if suggester == nil {
		suggester = mapping.DefaultSuggester()
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = DefaultSampleRows
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	return &Service{
		store:     store,
		files:     files,
		suggester: suggester,
		limiter:   NewImportLimiter(opts.MaxConcurrent, opts.AcquireWait),
		batch:     NewCoordinator(store, opts.Batch),
		opts:      opts,
	}
}

// UploadResult is returned after a document is stored and extracted.
type UploadResult struct {
	ImportID    uuid.UUID            `json:"import_id"`
	Filename    string               `json:"filename"`
	Headers     []string             `json:"headers"`
	Fields      []schema.Field       `json:"predefined_schema"`
	SampleRows  []RawRow             `json:"sample_data"`
	TotalRows   int                  `json:"total_rows"`
	Suggestions []mapping.Suggestion `json:"column_mapping"`
}

// Upload stores the document, extracts its headers and rows, creates the
// import record and proposes a mapping. Nothing is recorded and the stored
// file is removed when extraction or suggestion fails.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, ErrNoFile
	}
	if !ingest.Supported(filename) {
		return nil, fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, filepath.Ext(filename))
	}

	stored, err := s.files.Save(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc, err := s.extract(filename, stored.Path)
	if err != nil {
		s.discard(ctx, stored.Path)
		return nil, err
	}

	suggestions, err := s.suggester.Suggest(ctx, doc.Headers)
	if err != nil {
		s.discard(ctx, stored.Path)
		return nil, fmt.Errorf("suggest mapping: %w", err)
	}

	imp, err := s.store.CreateImport(ctx, Import{
		Filename:    filename,
		Extension:   strings.ToLower(filepath.Ext(filename)),
		StorageType: filestore.StorageLocal,
		LocalPath:   stored.Path,
	})
	if err != nil {
		s.discard(ctx, stored.Path)
		return nil, fmt.Errorf("create import: %w", err)
	}

	sample := doc.Sample(s.opts.SampleRows)
	rows := make([]RawRow, len(sample))
	for i, values := range sample {
		rows[i] = RowFromStrings(doc.Headers, values)
	}

	logging.ForImport(ctx, imp.ID.String()).Info("document uploaded",
		slog.String("filename", filename),
		slog.Int("columns", len(doc.Headers)),
		slog.Int("rows", len(doc.Rows)),
	)

	return &UploadResult{
		ImportID:    imp.ID,
		Filename:    filename,
		Headers:     doc.Headers,
		Fields:      schema.All(),
		SampleRows:  rows,
		TotalRows:   len(doc.Rows),
		Suggestions: suggestions,
	}, nil
}

// Process runs one batch. When rows is nil they are re-extracted from the
// stored document. Only batch-level failures return an error.
func (s *Service) Process(ctx context.Context, importID uuid.UUID, mappings []MappingEntry, rows []RawRow) (*Summary, error) {
	if len(mappings) == 0 {
		return nil, ErrNoMappings
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ProcessTimeout)
	defer cancel()

	if rows == nil {
		var err error
		if rows, err = s.storedRows(ctx, importID); err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	return s.batch.Process(ctx, importID, mappings, rows)
}

// GetImport returns one import record.
func (s *Service) GetImport(ctx context.Context, id uuid.UUID) (Import, error) {
	return s.store.GetImport(ctx, id)
}

// ListImports returns every import record, newest first.
func (s *Service) ListImports(ctx context.Context) ([]Import, error) {
	return s.store.ListImports(ctx)
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Drain waits for running batches to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) storedRows(ctx context.Context, importID uuid.UUID) ([]RawRow, error) {
	imp, err := s.store.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}
	if imp.LocalPath == "" {
		return nil, fmt.Errorf("import %s has no stored file", importID)
	}

	doc, err := s.extract(imp.Filename, imp.LocalPath)
	if err != nil {
		return nil, err
	}

	rows := make([]RawRow, len(doc.Rows))
	for i, values := range doc.Rows {
		rows[i] = RowFromStrings(doc.Headers, values)
	}
	return rows, nil
}

func (s *Service) extract(filename, path string) (*ingest.Document, error) {
	f, err := s.files.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer f.Close()
	return ingest.Extract(filename, f, s.opts.Extract)
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.files.Remove(path); err != nil {
		logging.FromContext(ctx).Warn("remove rejected upload", slog.String("path", path), slog.String("error", err.Error()))
	}
}
