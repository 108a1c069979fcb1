package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/claimsimport/internal/database"
	"github.com/JonMunkholm/claimsimport/internal/database/dbtest"
)

func TestQueries(t *testing.T) {
	pool := dbtest.Start(t, 15441)
	ctx := context.Background()
	q := database.New(pool)

	t.Run("schema is idempotent", func(t *testing.T) {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			t.Fatalf("second EnsureSchema: %v", err)
		}
	})

	t.Run("import lifecycle and column stats", func(t *testing.T) {
		dbtest.Truncate(t, pool)

		id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
		imp, err := q.CreateFileImport(ctx, database.CreateFileImportParams{
			ImportID:      id,
			Filename:      "claims.csv",
			FileExtension: ".csv",
			StorageType:   "local",
		})
		if err != nil {
			t.Fatalf("CreateFileImport: %v", err)
		}
		if imp.ProcessingStatus != "Uploaded" {
			t.Errorf("status = %s, want Uploaded", imp.ProcessingStatus)
		}

		patientID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
		if err := q.InsertPatient(ctx, database.InsertPatientParams{
			PatientID: patientID,
			MemberID:  pgtype.Text{String: "M-1", Valid: true},
		}); err != nil {
			t.Fatalf("InsertPatient: %v", err)
		}

		for i, pid := range []pgtype.UUID{patientID, {}} {
			if err := q.InsertClaim(ctx, database.InsertClaimParams{
				ClaimID:     pgtype.UUID{Bytes: uuid.New(), Valid: true},
				PatientID:   pid,
				ImportID:    id,
				ClaimStatus: pgtype.Text{String: "Paid", Valid: i == 0},
				Extra:       []byte(`{"clinic_ref":"CR-1"}`),
			}); err != nil {
				t.Fatalf("InsertClaim: %v", err)
			}
		}

		stats, err := q.ColumnStats(ctx, id, "claim", "claim_status", false, 10)
		if err != nil {
			t.Fatalf("ColumnStats: %v", err)
		}
		if stats.Populated != 1 || stats.Empty != 1 || len(stats.Samples) != 1 || stats.Samples[0] != "Paid" {
			t.Errorf("claim_status stats = %+v", stats)
		}

		extra, err := q.ColumnStats(ctx, id, "claim", "clinic_ref", true, 10)
		if err != nil {
			t.Fatalf("ColumnStats extra: %v", err)
		}
		if extra.Populated != 2 {
			t.Errorf("extra populated = %d, want 2", extra.Populated)
		}

		counts, err := q.CountImportEntities(ctx, id)
		if err != nil {
			t.Fatalf("CountImportEntities: %v", err)
		}
		if counts.Claims != 2 || counts.Patients != 1 {
			t.Errorf("counts = %+v", counts)
		}

		n, err := q.FinalizeFileImport(ctx, database.FinalizeFileImportParams{
			ImportID:         id,
			TotalFields:      10,
			NormalizedFields: 8,
			FailedFields:     2,
			ProcessingStatus: "Success",
		})
		if err != nil || n != 1 {
			t.Fatalf("FinalizeFileImport: n=%d err=%v", n, err)
		}

		sum, err := q.AnalyticsSummary(ctx)
		if err != nil {
			t.Fatalf("AnalyticsSummary: %v", err)
		}
		if sum.TotalFiles != 1 || sum.Success != 1 || sum.NormalizedFields != 8 {
			t.Errorf("analytics = %+v", sum)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		dbtest.Truncate(t, pool)
		id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
		if _, err := q.CreateFileImport(ctx, database.CreateFileImportParams{
			ImportID: id, Filename: "a.csv", FileExtension: ".csv", StorageType: "local",
		}); err != nil {
			t.Fatalf("CreateFileImport: %v", err)
		}
		if _, err := q.SetFileImportStatus(ctx, id, "Exploded"); err == nil {
			t.Error("expected check constraint violation")
		}
	})
}
