package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/database/dbtest"
)

func TestPgStore_ProcessBatch(t *testing.T) {
	pool := dbtest.Start(t, 15442)
	ctx := context.Background()
	store := NewPgStore(pool)

	t.Run("end to end", func(t *testing.T) {
		dbtest.Truncate(t, pool)

		imp, err := store.CreateImport(ctx, Import{Filename: "claims.csv", Extension: ".csv", LocalPath: "/tmp/claims.csv"})
		if err != nil {
			t.Fatalf("CreateImport: %v", err)
		}
		if imp.Status != StatusUploaded {
			t.Errorf("status = %s, want Uploaded", imp.Status)
		}

		headers := []string{"Member", "NPI", "Policy", "Billed", "Dx", "Desc", "Clinic", "Gender"}
		m := mappings(
			"Member", "member_id",
			"NPI", "npi_number",
			"Policy", "policy_number",
			"Billed", "amount_claimed",
			"Dx", "diagnosis_code",
			"Desc", "diagnosis_description",
			"Clinic", "clinic_ref",
			"Gender", "gender",
		)
		rows := []RawRow{
			RowFromStrings(headers, []string{"M-1", "111", "P-1", "$1,234.56", "E11.9", "Diabetes", "C-1", "f"}),
			// diagnosis code too long for VARCHAR(20): the row is rolled back
			RowFromStrings(headers, []string{"M-2", "222", "P-2", "10", strings.Repeat("X", 30), "", "", "m"}),
			RowFromStrings(headers, []string{"", "", "P-3", "", "", "", "", ""}),
		}

		c := NewCoordinator(store, BatchOptions{Grouping: DiagnosisMerged})
		sum, err := c.Process(ctx, imp.ID, m, rows)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}

		if sum.RowStats.Successful != 2 || sum.RowStats.Failed != 1 {
			t.Errorf("row stats = %+v", sum.RowStats)
		}
		want := EntityCounts{Patients: 1, Providers: 1, Policies: 1, Claims: 2, Diagnoses: 1}
		if sum.EntitiesCreated != want {
			t.Errorf("entities = %+v, want %+v", sum.EntitiesCreated, want)
		}

		var claims, patients, logs int
		pool.QueryRow(ctx, "SELECT count(*) FROM claim WHERE import_id = $1", imp.ID).Scan(&claims)
		pool.QueryRow(ctx, "SELECT count(*) FROM patient").Scan(&patients)
		pool.QueryRow(ctx, "SELECT count(*) FROM processing_log WHERE import_id = $1", imp.ID).Scan(&logs)
		if claims != 2 || patients != 1 || logs != len(m) {
			t.Errorf("claims=%d patients=%d logs=%d", claims, patients, logs)
		}

		var amount, extra string
		pool.QueryRow(ctx, "SELECT amount_claimed::text, extra->>'clinic_ref' FROM claim WHERE extra IS NOT NULL").Scan(&amount, &extra)
		if amount != "1234.56" || extra != "C-1" {
			t.Errorf("amount=%q extra=%q", amount, extra)
		}

		got, err := store.GetImport(ctx, imp.ID)
		if err != nil {
			t.Fatalf("GetImport: %v", err)
		}
		if got.Status != sum.Status {
			t.Errorf("persisted status = %s, summary status = %s", got.Status, sum.Status)
		}
		if got.FieldsSeen != int64(sum.FieldStats.Total) || got.FieldsNormalized != int64(sum.FieldStats.Successful) {
			t.Errorf("persisted counters = %+v, summary = %+v", got, sum.FieldStats)
		}
	})

	t.Run("missing import", func(t *testing.T) {
		_, err := store.GetImport(ctx, uuid.New())
		if !errors.Is(err, ErrImportNotFound) {
			t.Fatalf("error = %v, want ErrImportNotFound", err)
		}
	})

	t.Run("cancelled batch stays in mapping", func(t *testing.T) {
		dbtest.Truncate(t, pool)

		imp, err := store.CreateImport(ctx, Import{Filename: "a.csv", Extension: ".csv"})
		if err != nil {
			t.Fatalf("CreateImport: %v", err)
		}

		if err := store.RecordMappings(ctx, imp.ID, mappings("Member", "member_id")); err != nil {
			t.Fatalf("RecordMappings: %v", err)
		}

		tx, err := store.BeginBatch(ctx)
		if err != nil {
			t.Fatalf("BeginBatch: %v", err)
		}
		bags := EntityBags{Patient: Patient{MemberID: ToPgText("M-9")}}
		if err := tx.LoadRow(ctx, func(w EntityWriter) error {
			_, err := LoadRow(ctx, w, imp.ID, &bags)
			return err
		}); err != nil {
			t.Fatalf("LoadRow: %v", err)
		}
		if err := tx.Rollback(ctx); err != nil {
			t.Fatalf("Rollback: %v", err)
		}

		got, _ := store.GetImport(ctx, imp.ID)
		if got.Status != StatusMapping {
			t.Errorf("status = %s, want Mapping", got.Status)
		}
		var claims int
		pool.QueryRow(ctx, "SELECT count(*) FROM claim").Scan(&claims)
		if claims != 0 {
			t.Errorf("claims = %d, want 0", claims)
		}
	})
}
