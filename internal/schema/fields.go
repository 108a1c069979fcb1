package schema

import "strings"

// PatientFields are stored on the patient table.
var PatientFields = []Field{
	{Name: "member_id", Label: "Member ID", Entity: EntityPatient, Kind: KindText, Column: "member_id",
		Aliases: []string{"member", "member number", "subscriber id", "patient id", "mbr id"}},
	{Name: "first_name", Label: "First Name", Entity: EntityPatient, Kind: KindText, Column: "first_name",
		Aliases: []string{"first", "fname", "given name", "patient first name"}},
	{Name: "last_name", Label: "Last Name", Entity: EntityPatient, Kind: KindText, Column: "last_name",
		Aliases: []string{"last", "lname", "surname", "family name", "patient last name"}},
	{Name: "dob", Label: "Date of Birth", Entity: EntityPatient, Kind: KindDate, Column: "dob",
		Aliases: []string{"date of birth", "birth date", "birthdate", "birthday"}},
	{Name: "gender", Label: "Gender", Entity: EntityPatient, Kind: KindGender, Column: "gender",
		Aliases: []string{"sex", "patient gender"}},
	{Name: "email", Label: "Email", Entity: EntityPatient, Kind: KindText, Column: "email",
		Aliases: []string{"email address", "e-mail", "patient email"}},
	{Name: "phone", Label: "Phone", Entity: EntityPatient, Kind: KindText, Column: "phone",
		Aliases: []string{"phone number", "telephone", "mobile", "contact number"}},
	{Name: "address", Label: "Address", Entity: EntityPatient, Kind: KindText, Column: "address",
		Aliases: []string{"street address", "mailing address", "patient address"}},
}

// ProviderFields are stored on the provider table.
var ProviderFields = []Field{
	{Name: "npi_number", Label: "NPI Number", Entity: EntityProvider, Kind: KindText, Column: "npi_number",
		Aliases: []string{"npi", "provider npi", "rendering npi", "billing npi"}},
	{Name: "provider_name", Label: "Provider Name", Entity: EntityProvider, Kind: KindText, Column: "provider_name",
		Aliases: []string{"provider", "doctor", "physician", "rendering provider", "facility name"}},
}

// PolicyFields are stored on the policy table.
var PolicyFields = []Field{
	{Name: "policy_number", Label: "Policy Number", Entity: EntityPolicy, Kind: KindText, Column: "policy_number",
		Aliases: []string{"policy", "policy no", "policy id"}},
	{Name: "plan_name", Label: "Plan Name", Entity: EntityPolicy, Kind: KindText, Column: "plan_name",
		Aliases: []string{"plan", "insurance plan", "health plan"}},
	{Name: "group_number", Label: "Group Number", Entity: EntityPolicy, Kind: KindText, Column: "group_number",
		Aliases: []string{"group", "group no", "group id"}},
	{Name: "policy_start_date", Label: "Policy Start Date", Entity: EntityPolicy, Kind: KindDate, Column: "policy_start_date",
		Aliases: []string{"coverage start", "effective date", "policy start"}},
	{Name: "policy_end_date", Label: "Policy End Date", Entity: EntityPolicy, Kind: KindDate, Column: "policy_end_date",
		Aliases: []string{"coverage end", "termination date", "policy end"}},
}

// DiagnosisFields are stored on the claim_diagnosis table.
var DiagnosisFields = []Field{
	{Name: "diagnosis_code", Label: "Diagnosis Code", Entity: EntityDiagnosis, Kind: KindText, Column: "diagnosis_code",
		Aliases: []string{"dx code", "icd code", "icd10", "icd-10", "diagnosis"}},
	{Name: "diagnosis_description", Label: "Diagnosis Description", Entity: EntityDiagnosis, Kind: KindText, Column: "diagnosis_description",
		Aliases: []string{"dx description", "diagnosis desc", "icd description"}},
}

// ClaimFields are stored on the claim table.
var ClaimFields = []Field{
	{Name: "claim_date", Label: "Claim Date", Entity: EntityClaim, Kind: KindDate, Column: "claim_date",
		Aliases: []string{"date of service", "service date", "dos", "claim dt"}},
	{Name: "admission_date", Label: "Admission Date", Entity: EntityClaim, Kind: KindDate, Column: "admission_date",
		Aliases: []string{"admit date", "admitted"}},
	{Name: "discharge_date", Label: "Discharge Date", Entity: EntityClaim, Kind: KindDate, Column: "discharge_date",
		Aliases: []string{"discharged", "discharge"}},
	{Name: "amount_claimed", Label: "Amount Claimed", Entity: EntityClaim, Kind: KindAmount, Column: "amount_claimed",
		Aliases: []string{"claim amount", "billed amount", "charge amount", "total charges", "claimed amount", "billed"}},
	{Name: "amount_approved", Label: "Amount Approved", Entity: EntityClaim, Kind: KindAmount, Column: "amount_approved",
		Aliases: []string{"allowed amount", "paid amount", "approved amount", "approved"}},
	{Name: "claim_status", Label: "Claim Status", Entity: EntityClaim, Kind: KindText, Column: "claim_status",
		Aliases: []string{"status", "claim state"}},
	{Name: "rejection_reason", Label: "Rejection Reason", Entity: EntityClaim, Kind: KindText, Column: "rejection_reason",
		Aliases: []string{"denial reason", "reject reason", "reason"}},
}

var byName = func() map[string]Field {
	m := make(map[string]Field)
	for _, f := range All() {
		m[f.Name] = f
	}
	return m
}()

// All returns every registered field, grouped by entity in insertion order.
func All() []Field {
	out := make([]Field, 0, len(PatientFields)+len(ProviderFields)+len(PolicyFields)+len(ClaimFields)+len(DiagnosisFields))
	out = append(out, PatientFields...)
	out = append(out, ProviderFields...)
	out = append(out, PolicyFields...)
	out = append(out, ClaimFields...)
	out = append(out, DiagnosisFields...)
	return out
}

// Names returns every registered field name.
func Names() []string {
	fields := All()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the registered field with the given name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// EntityOf returns the entity a target field belongs to. Any field not in
// the registry belongs to the claim.
func EntityOf(name string) Entity {
	if f, ok := byName[name]; ok {
		return f.Entity
	}
	return EntityClaim
}

// KindOf returns the normalization kind for a target field. Fields outside
// the registry are dates when their name contains "date" or equals "dob",
// and text otherwise.
func KindOf(name string) Kind {
	if f, ok := byName[name]; ok {
		return f.Kind
	}
	if strings.Contains(name, "date") || name == "dob" {
		return KindDate
	}
	return KindText
}
