package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mappings(pairs ...string) []MappingEntry {
	out := make([]MappingEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, MappingEntry{Header: pairs[i], FinalMapping: pairs[i+1]})
	}
	return out
}

func TestNewMappingIndex_DropsUnmapped(t *testing.T) {
	idx := NewMappingIndex(mappings(
		"Member", "member_id",
		"Notes", "Unmapped",
		"Junk", "unmapped",
		"Blank", "",
		"DOB", "dob",
	))

	want := MappingIndex{"Member": "member_id", "DOB": "dob"}
	if !reflect.DeepEqual(idx, want) {
		t.Errorf("index = %v, want %v", idx, want)
	}
}

func TestAssemble_RoutesToBags(t *testing.T) {
	idx := NewMappingIndex(mappings(
		"Member", "member_id",
		"Sex", "gender",
		"NPI", "npi_number",
		"Policy", "policy_number",
		"Billed", "amount_claimed",
		"Dx", "diagnosis_code",
		"Clinic Ref", "clinic_ref",
	))
	row := RowFromStrings(
		[]string{"Member", "Sex", "NPI", "Policy", "Billed", "Dx", "Clinic Ref"},
		[]string{"M-1", " Female ", "1234567890", "P-9", "$1,234.56", "E11.9", "CR-7"},
	)

	asm := Assemble(row, idx, DiagnosisSplit)

	if len(asm.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", asm.ErrorStrings())
	}
	if asm.Normalized != 7 || asm.Seen() != 7 {
		t.Errorf("normalized=%d seen=%d, want 7/7", asm.Normalized, asm.Seen())
	}
	b := asm.Bags
	if b.Patient.MemberID.String != "M-1" || b.Patient.Gender.String != "F" {
		t.Errorf("patient = %+v", b.Patient)
	}
	if b.Provider.NPINumber.String != "1234567890" {
		t.Errorf("provider = %+v", b.Provider)
	}
	if b.Policy.PolicyNumber.String != "P-9" {
		t.Errorf("policy = %+v", b.Policy)
	}
	amount, ok := NumericToDecimal(b.Claim.AmountClaimed)
	if !ok || amount.String() != "1234.56" {
		t.Errorf("amount = %v (valid=%v), want 1234.56", amount, ok)
	}
	if b.Claim.Extra["clinic_ref"] != "CR-7" {
		t.Errorf("claim extra = %v", b.Claim.Extra)
	}
	if len(b.Diagnoses) != 1 || b.Diagnoses[0].Code.String != "E11.9" {
		t.Errorf("diagnoses = %+v", b.Diagnoses)
	}
	if !asm.HasAnyData() {
		t.Error("HasAnyData = false, want true")
	}
}

func TestAssemble_FieldErrorsDoNotStopRow(t *testing.T) {
	idx := NewMappingIndex(mappings(
		"DOB", "dob",
		"Gender", "gender",
		"Status", "claim_status",
	))
	row := RowFromStrings(
		[]string{"DOB", "Gender", "Status"},
		[]string{"1985-13-40", "unknown-gender", "Denied"},
	)

	asm := Assemble(row, idx, DiagnosisSplit)

	want := []string{
		"DOB: unrecognized date format",
		"Gender: invalid gender value",
	}
	if got := asm.ErrorStrings(); !reflect.DeepEqual(got, want) {
		t.Errorf("errors = %v, want %v", got, want)
	}
	if asm.Normalized != 1 {
		t.Errorf("normalized = %d, want 1", asm.Normalized)
	}
	if !asm.HasAnyData() {
		t.Error("HasAnyData = false, want true")
	}
	if asm.Bags.Claim.ClaimStatus.String != "Denied" {
		t.Errorf("claim status = %q", asm.Bags.Claim.ClaimStatus.String)
	}
}

func TestAssemble_AllUnmapped(t *testing.T) {
	idx := NewMappingIndex(mappings("A", "Unmapped"))
	row := RowFromStrings([]string{"A", "B"}, []string{"x", "y"})

	asm := Assemble(row, idx, DiagnosisSplit)

	if asm.HasAnyData() {
		t.Error("HasAnyData = true, want false")
	}
	if asm.Seen() != 2 || asm.Normalized != 0 || len(asm.Errors) != 0 {
		t.Errorf("seen=%d normalized=%d errors=%d, want 2/0/0", asm.Seen(), asm.Normalized, len(asm.Errors))
	}
}

func TestAssemble_DiagnosisGrouping(t *testing.T) {
	idx := NewMappingIndex(mappings(
		"Code", "diagnosis_code",
		"Desc", "diagnosis_description",
	))
	row := RowFromStrings([]string{"Code", "Desc"}, []string{"J45", "Asthma"})

	tests := []struct {
		grouping DiagnosisGrouping
		want     int
	}{
		{DiagnosisSplit, 2},
		{DiagnosisMerged, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.grouping), func(t *testing.T) {
			asm := Assemble(row, idx, tt.grouping)
			if len(asm.Bags.Diagnoses) != tt.want {
				t.Fatalf("diagnoses = %d, want %d", len(asm.Bags.Diagnoses), tt.want)
			}
			if tt.grouping == DiagnosisMerged {
				d := asm.Bags.Diagnoses[0]
				if d.Code.String != "J45" || d.Description.String != "Asthma" {
					t.Errorf("merged diagnosis = %+v", d)
				}
			}
		})
	}
}

func TestRawRow_JSONKeepsOrder(t *testing.T) {
	input := `{"zeta":"1","alpha":2.50,"mid":null}`

	var row RawRow
	if err := json.Unmarshal([]byte(input), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var headers []string
	for _, c := range row {
		headers = append(headers, c.Header)
	}
	if !reflect.DeepEqual(headers, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("headers = %v", headers)
	}
	if v, _ := row.Get("alpha"); v != json.Number("2.50") {
		t.Errorf("alpha = %#v, want json.Number(2.50)", v)
	}

	out, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"zeta":"1","alpha":2.50,"mid":null}` {
		t.Errorf("marshal = %s", out)
	}
}

func TestRawRow_RejectsNonObject(t *testing.T) {
	var row RawRow
	if err := json.Unmarshal([]byte(`["a"]`), &row); err == nil {
		t.Error("expected error for array input")
	}
}
