package core

// store_pg.go implements Store on PostgreSQL.
//
// A batch runs in one transaction. Every row gets its own savepoint: a
// failed insert rolls back to it and the batch moves on, a successful row
// releases it. The import counters and terminal status are written in the
// same transaction before commit.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	db "github.com/JonMunkholm/claimsimport/internal/database"
)

// PgStore is the PostgreSQL Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store on pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CreateImport(ctx context.Context, imp Import) (Import, error) {
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}
	storage := imp.StorageType
	if storage == "" {
		storage = "local"
	}
	row, err := db.New(s.pool).CreateFileImport(ctx, db.CreateFileImportParams{
		ImportID:      ToPgUUID(imp.ID),
		Filename:      imp.Filename,
		FileExtension: imp.Extension,
		StorageType:   storage,
		LocalPath:     ToPgText(imp.LocalPath),
	})
	if err != nil {
		return Import{}, fmt.Errorf("create import: %w", err)
	}
	return ImportFromRow(row), nil
}

func (s *PgStore) GetImport(ctx context.Context, id uuid.UUID) (Import, error) {
	row, err := db.New(s.pool).GetFileImport(ctx, ToPgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Import{}, ErrImportNotFound
	}
	if err != nil {
		return Import{}, fmt.Errorf("get import: %w", err)
	}
	return ImportFromRow(row), nil
}

func (s *PgStore) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := db.New(s.pool).ListFileImports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	out := make([]Import, len(rows))
	for i, r := range rows {
		out[i] = ImportFromRow(r)
	}
	return out, nil
}

func (s *PgStore) ListStaleImports(ctx context.Context, status ImportStatus, before time.Time) ([]Import, error) {
	rows, err := db.New(s.pool).ListStaleFileImports(ctx, db.ListStaleFileImportsParams{
		ProcessingStatus: string(status),
		ChangedBefore:    pgtype.Timestamptz{Time: before, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list stale imports: %w", err)
	}
	out := make([]Import, len(rows))
	for i, r := range rows {
		out[i] = ImportFromRow(r)
	}
	return out, nil
}

// RecordMappings writes the audit entries and the Mapping status in one
// transaction.
func (s *PgStore) RecordMappings(ctx context.Context, importID uuid.UUID, entries []MappingEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(tx)
	id := ToPgUUID(importID)

	for _, e := range entries {
		params := db.InsertProcessingLogParams{
			LogID:             ToPgUUID(uuid.New()),
			ImportID:          id,
			Header:            e.Header,
			FinalMapping:      e.FinalMapping,
			UserEditedMapping: e.UserEdited,
		}
		if e.Suggestion != nil {
			params.LlmSuggestion = ToPgText(*e.Suggestion)
		}
		if e.ConfidenceScore != nil {
			params.ConfidenceScore = pgtype.Float8{Float64: *e.ConfidenceScore, Valid: true}
		}
		if err := q.InsertProcessingLog(ctx, params); err != nil {
			return fmt.Errorf("insert mapping log for %q: %w", e.Header, err)
		}
	}

	n, err := q.SetFileImportStatus(ctx, id, string(StatusMapping))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if n == 0 {
		return ErrImportNotFound
	}

	return tx.Commit(ctx)
}

func (s *PgStore) BeginBatch(ctx context.Context) (BatchTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgBatch{tx: tx, q: db.New(tx)}, nil
}

type pgBatch struct {
	tx  pgx.Tx
	q   *db.Queries
	seq int
}

func (b *pgBatch) LoadRow(ctx context.Context, fn func(EntityWriter) error) error {
	b.seq++
	savepoint := fmt.Sprintf("row_%d", b.seq)

	if _, err := b.tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
		return &BatchError{Err: fmt.Errorf("create savepoint: %w", err)}
	}

	if err := fn(pgWriter{q: b.q}); err != nil {
		if _, rbErr := b.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			return &BatchError{Err: fmt.Errorf("rollback savepoint: %w", rbErr)}
		}
		return err
	}

	if _, err := b.tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return &BatchError{Err: fmt.Errorf("release savepoint: %w", err)}
	}
	return nil
}

func (b *pgBatch) Finalize(ctx context.Context, importID uuid.UUID, totals FieldTotals, status ImportStatus) error {
	n, err := b.q.FinalizeFileImport(ctx, db.FinalizeFileImportParams{
		ImportID:         ToPgUUID(importID),
		TotalFields:      totals.Seen,
		NormalizedFields: totals.Normalized,
		FailedFields:     totals.Failed,
		ProcessingStatus: string(status),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrImportNotFound
	}
	return nil
}

func (b *pgBatch) Commit(ctx context.Context) error {
	return b.tx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (b *pgBatch) Rollback(ctx context.Context) error {
	err := b.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

type pgWriter struct {
	q *db.Queries
}

func (w pgWriter) InsertPatient(ctx context.Context, id uuid.UUID, p Patient) error {
	return w.q.InsertPatient(ctx, db.InsertPatientParams{
		PatientID: ToPgUUID(id),
		MemberID:  p.MemberID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Dob:       p.DOB,
		Gender:    p.Gender,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
	})
}

func (w pgWriter) InsertProvider(ctx context.Context, id uuid.UUID, p Provider) error {
	return w.q.InsertProvider(ctx, db.InsertProviderParams{
		ProviderID:   ToPgUUID(id),
		NpiNumber:    p.NPINumber,
		ProviderName: p.ProviderName,
	})
}

func (w pgWriter) InsertPolicy(ctx context.Context, id, providerID uuid.UUID, p Policy) error {
	return w.q.InsertPolicy(ctx, db.InsertPolicyParams{
		PolicyID:        ToPgUUID(id),
		ProviderID:      ToPgUUID(providerID),
		PolicyNumber:    p.PolicyNumber,
		PlanName:        p.PlanName,
		GroupNumber:     p.GroupNumber,
		PolicyStartDate: p.PolicyStartDate,
		PolicyEndDate:   p.PolicyEndDate,
	})
}

func (w pgWriter) InsertClaim(ctx context.Context, id uuid.UUID, links ClaimLinks, c Claim) error {
	var extra []byte
	if len(c.Extra) > 0 {
		b, err := json.Marshal(c.Extra)
		if err != nil {
			return fmt.Errorf("encode extra fields: %w", err)
		}
		extra = b
	}
	return w.q.InsertClaim(ctx, db.InsertClaimParams{
		ClaimID:         ToPgUUID(id),
		PatientID:       ToPgUUID(links.PatientID),
		ProviderID:      ToPgUUID(links.ProviderID),
		PolicyID:        ToPgUUID(links.PolicyID),
		ImportID:        ToPgUUID(links.ImportID),
		ClaimDate:       c.ClaimDate,
		AdmissionDate:   c.AdmissionDate,
		DischargeDate:   c.DischargeDate,
		AmountClaimed:   c.AmountClaimed,
		AmountApproved:  c.AmountApproved,
		ClaimStatus:     c.ClaimStatus,
		RejectionReason: c.RejectionReason,
		Extra:           extra,
	})
}

func (w pgWriter) InsertDiagnosis(ctx context.Context, id, claimID uuid.UUID, d Diagnosis) error {
	return w.q.InsertClaimDiagnosis(ctx, db.InsertClaimDiagnosisParams{
		DiagnosisID:          ToPgUUID(id),
		ClaimID:              ToPgUUID(claimID),
		DiagnosisCode:        d.Code,
		DiagnosisDescription: d.Description,
	})
}

// ImportFromRow converts a file_import row.
func ImportFromRow(r db.FileImport) Import {
	return Import{
		ID:               uuid.UUID(r.ImportID.Bytes),
		Filename:         r.Filename,
		Extension:        r.FileExtension,
		StorageType:      r.StorageType,
		LocalPath:        r.LocalPath.String,
		Status:           ImportStatus(r.ProcessingStatus),
		UploadedAt:       r.UploadTime.Time,
		StatusChangedAt:  r.StatusChangedAt.Time,
		FieldsSeen:       r.TotalFields,
		FieldsNormalized: r.NormalizedFields,
		FieldsFailed:     r.FailedFields,
	}
}
