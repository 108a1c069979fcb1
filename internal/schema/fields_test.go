package schema

import (
	"strings"
	"testing"
)

func TestEntityOf(t *testing.T) {
	tests := []struct {
		field string
		want  Entity
	}{
		{"member_id", EntityPatient},
		{"dob", EntityPatient},
		{"address", EntityPatient},
		{"npi_number", EntityProvider},
		{"provider_name", EntityProvider},
		{"policy_number", EntityPolicy},
		{"policy_end_date", EntityPolicy},
		{"diagnosis_code", EntityDiagnosis},
		{"diagnosis_description", EntityDiagnosis},
		{"amount_claimed", EntityClaim},
		{"rejection_reason", EntityClaim},
		{"custom_field", EntityClaim},
		{"", EntityClaim},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := EntityOf(tt.field); got != tt.want {
				t.Errorf("EntityOf(%q) = %s, want %s", tt.field, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		field string
		want  Kind
	}{
		{"dob", KindDate},
		{"claim_date", KindDate},
		{"service_date_custom", KindDate},
		{"gender", KindGender},
		{"amount_claimed", KindAmount},
		{"amount_approved", KindAmount},
		{"amount_other", KindText},
		{"first_name", KindText},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := KindOf(tt.field); got != tt.want {
				t.Errorf("KindOf(%q) = %s, want %s", tt.field, got, tt.want)
			}
		})
	}
}

// Registered kinds must agree with the name rule used for custom fields.
func TestRegistryKindsMatchNameRule(t *testing.T) {
	for _, f := range All() {
		isDateName := strings.Contains(f.Name, "date") || f.Name == "dob"
		if isDateName != (f.Kind == KindDate) {
			t.Errorf("field %s: kind %s disagrees with date naming", f.Name, f.Kind)
		}
	}
}

func TestRegistryUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range All() {
		if seen[f.Name] {
			t.Errorf("duplicate field %s", f.Name)
		}
		seen[f.Name] = true
		if f.Column == "" {
			t.Errorf("field %s has no column", f.Name)
		}
	}
	if len(seen) != 24 {
		t.Errorf("registry has %d fields, want 24", len(seen))
	}
}

func TestIsUnmapped(t *testing.T) {
	for _, v := range []string{"", "  ", "Unmapped", "unmapped", " UNMAPPED "} {
		if !IsUnmapped(v) {
			t.Errorf("IsUnmapped(%q) = false, want true", v)
		}
	}
	if IsUnmapped("member_id") {
		t.Error("IsUnmapped(member_id) = true, want false")
	}
}
