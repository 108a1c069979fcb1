package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary used by the service.
type Store interface {
	// CreateImport persists a new import record with status Uploaded.
	CreateImport(ctx context.Context, imp Import) (Import, error)
	// GetImport returns ErrImportNotFound when no record exists.
	GetImport(ctx context.Context, id uuid.UUID) (Import, error)
	ListImports(ctx context.Context) ([]Import, error)
	// ListStaleImports returns imports in status that have not changed since before.
	ListStaleImports(ctx context.Context, status ImportStatus, before time.Time) ([]Import, error)
	// RecordMappings writes one audit entry per mapping and moves the import to Mapping.
	RecordMappings(ctx context.Context, importID uuid.UUID, entries []MappingEntry) error
	// BeginBatch opens the transaction that loads every row of one batch.
	BeginBatch(ctx context.Context) (BatchTx, error)
}

// BatchTx loads rows inside one transaction. Each LoadRow call is isolated:
// if fn fails, only that row's writes are undone.
type BatchTx interface {
	LoadRow(ctx context.Context, fn func(EntityWriter) error) error
	// Finalize writes the import counters and terminal status.
	Finalize(ctx context.Context, importID uuid.UUID, totals FieldTotals, status ImportStatus) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// EntityWriter inserts entities with caller-generated identifiers.
type EntityWriter interface {
	InsertPatient(ctx context.Context, id uuid.UUID, p Patient) error
	InsertProvider(ctx context.Context, id uuid.UUID, p Provider) error
	InsertPolicy(ctx context.Context, id, providerID uuid.UUID, p Policy) error
	InsertClaim(ctx context.Context, id uuid.UUID, links ClaimLinks, c Claim) error
	InsertDiagnosis(ctx context.Context, id, claimID uuid.UUID, d Diagnosis) error
}

// ClaimLinks are the foreign keys of a claim. Zero uuids are NULL.
type ClaimLinks struct {
	ImportID   uuid.UUID
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	PolicyID   uuid.UUID
}
