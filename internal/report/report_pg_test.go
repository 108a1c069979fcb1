package report

import (
	"context"
	"testing"

	"github.com/JonMunkholm/claimsimport/internal/core"
	db "github.com/JonMunkholm/claimsimport/internal/database"
	"github.com/JonMunkholm/claimsimport/internal/database/dbtest"
)

func TestFileReport_Postgres(t *testing.T) {
	pool := dbtest.Start(t, 15443)
	ctx := context.Background()
	store := core.NewPgStore(pool)

	imp, err := store.CreateImport(ctx, core.Import{Filename: "claims.csv", Extension: ".csv"})
	if err != nil {
		t.Fatalf("CreateImport: %v", err)
	}

	headers := []string{"Member", "Billed", "Clinic", "Notes"}
	suggested := "member_id"
	m := []core.MappingEntry{
		{Header: "Member", FinalMapping: "member_id", Suggestion: &suggested},
		{Header: "Billed", FinalMapping: "amount_claimed", UserEdited: true},
		{Header: "Clinic", FinalMapping: "clinic_ref", UserEdited: true},
		{Header: "Notes", FinalMapping: "Unmapped"},
	}
	rows := []core.RawRow{
		core.RowFromStrings(headers, []string{"M-1", "100", "C-1", "x"}),
		core.RowFromStrings(headers, []string{"M-2", "", "", "y"}),
	}
	if _, err := core.NewCoordinator(store, core.DefaultBatchOptions()).Process(ctx, imp.ID, m, rows); err != nil {
		t.Fatalf("Process: %v", err)
	}

	rep, err := NewBuilder(db.New(pool)).FileReport(ctx, imp.ID)
	if err != nil {
		t.Fatalf("FileReport: %v", err)
	}

	if rep.Statistics.Entities.Claims != 2 || rep.Statistics.Entities.Patients != 2 {
		t.Errorf("entities = %+v", rep.Statistics.Entities)
	}

	byHeader := map[string]ColumnReport{}
	for _, c := range rep.ColumnMappings {
		byHeader[c.Header] = c
	}
	if c := byHeader["Member"]; c.RecordsPopulated != 2 || c.EmptyValues != 0 {
		t.Errorf("Member = %+v", c)
	}
	if c := byHeader["Billed"]; c.RecordsPopulated != 1 || c.EmptyValues != 1 || len(c.InsertedValues) != 1 {
		t.Errorf("Billed = %+v", c)
	}
	if c := byHeader["Clinic"]; c.RecordsPopulated != 1 || c.InsertedValues[0] != "C-1" {
		t.Errorf("Clinic = %+v", c)
	}
	if rep.Summary.Unmapped != 1 || rep.Summary.SuggestedMapped != 1 || rep.Summary.ManuallyMapped != 2 {
		t.Errorf("summary = %+v", rep.Summary)
	}

	a, err := NewBuilder(db.New(pool)).Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.Summary.TotalFiles != 1 || len(a.Files) != 1 {
		t.Errorf("analytics = %+v", a.Summary)
	}
}
