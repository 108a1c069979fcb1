// Package export writes the claims of an import to Parquet.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/parquet-go/parquet-go"

	"github.com/JonMunkholm/claimsimport/internal/core"
	db "github.com/JonMunkholm/claimsimport/internal/database"
)

// ClaimRecord is one exported claim. NULL columns are nil. Amounts are
// decimal strings so no precision is lost.
type ClaimRecord struct {
	ClaimID         string   `parquet:"claim_id"`
	ImportID        string   `parquet:"import_id"`
	MemberID        *string  `parquet:"member_id,optional"`
	FirstName       *string  `parquet:"first_name,optional"`
	LastName        *string  `parquet:"last_name,optional"`
	NPINumber       *string  `parquet:"npi_number,optional"`
	ProviderName    *string  `parquet:"provider_name,optional"`
	PolicyNumber    *string  `parquet:"policy_number,optional"`
	ClaimDate       *string  `parquet:"claim_date,optional"`
	AdmissionDate   *string  `parquet:"admission_date,optional"`
	DischargeDate   *string  `parquet:"discharge_date,optional"`
	AmountClaimed   *string  `parquet:"amount_claimed,optional"`
	AmountApproved  *string  `parquet:"amount_approved,optional"`
	ClaimStatus     *string  `parquet:"claim_status,optional"`
	RejectionReason *string  `parquet:"rejection_reason,optional"`
	DiagnosisCodes  []string `parquet:"diagnosis_codes,list"`
}

// flushInterval bounds the rows buffered per row group.
const flushInterval = 50_000

// Writer streams ClaimRecords to a Snappy-compressed Parquet file.
type Writer struct {
	w     *parquet.GenericWriter[ClaimRecord]
	count int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: parquet.NewGenericWriter[ClaimRecord](w,
			parquet.Compression(&parquet.Snappy),
			parquet.CreatedBy("claimsimport", "1.0", ""),
		),
	}
}

func (pw *Writer) Write(rec ClaimRecord) error {
	if _, err := pw.w.Write([]ClaimRecord{rec}); err != nil {
		return fmt.Errorf("write parquet record: %w", err)
	}
	pw.count++
	if pw.count%flushInterval == 0 {
		if err := pw.w.Flush(); err != nil {
			return fmt.Errorf("flush parquet row group: %w", err)
		}
	}
	return nil
}

// Close writes the footer. The underlying io.Writer is not closed.
func (pw *Writer) Close() error {
	if err := pw.w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func (pw *Writer) Count() int { return pw.count }

// ClaimSource lists the claims of one import. *database.Queries satisfies it.
type ClaimSource interface {
	ListClaimsForExport(ctx context.Context, importID pgtype.UUID) ([]db.ListClaimsForExportRow, error)
}

// Claims writes every claim of importID to w and returns the row count.
func Claims(ctx context.Context, src ClaimSource, importID uuid.UUID, w io.Writer) (int, error) {
	rows, err := src.ListClaimsForExport(ctx, core.ToPgUUID(importID))
	if err != nil {
		return 0, fmt.Errorf("list claims: %w", err)
	}

	pw := NewWriter(w)
	for _, r := range rows {
		if err := pw.Write(Record(importID, r)); err != nil {
			pw.Close()
			return pw.Count(), err
		}
	}
	if err := pw.Close(); err != nil {
		return pw.Count(), err
	}
	return pw.Count(), nil
}

// Record converts one exported row.
func Record(importID uuid.UUID, r db.ListClaimsForExportRow) ClaimRecord {
	return ClaimRecord{
		ClaimID:         core.PgUUIDToString(r.ClaimID),
		ImportID:        importID.String(),
		MemberID:        textPtr(r.MemberID),
		FirstName:       textPtr(r.FirstName),
		LastName:        textPtr(r.LastName),
		NPINumber:       textPtr(r.NpiNumber),
		ProviderName:    textPtr(r.ProviderName),
		PolicyNumber:    textPtr(r.PolicyNumber),
		ClaimDate:       datePtr(r.ClaimDate),
		AdmissionDate:   datePtr(r.AdmissionDate),
		DischargeDate:   datePtr(r.DischargeDate),
		AmountClaimed:   numericPtr(r.AmountClaimed),
		AmountApproved:  numericPtr(r.AmountApproved),
		ClaimStatus:     textPtr(r.ClaimStatus),
		RejectionReason: textPtr(r.RejectionReason),
		DiagnosisCodes:  r.DiagnosisCodes,
	}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func datePtr(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format("2006-01-02")
	return &s
}

func numericPtr(n pgtype.Numeric) *string {
	d, ok := core.NumericToDecimal(n)
	if !ok {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
