package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ImportStatus is the processing state of an import record.
type ImportStatus string

const (
	StatusUploaded ImportStatus = "Uploaded"
	StatusMapping  ImportStatus = "Mapping"
	StatusSuccess  ImportStatus = "Success"
	StatusFailed   ImportStatus = "Failed"
)

// Terminal reports whether no further batch will change the status.
func (s ImportStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// MappingEntry associates one source header with a target field. Field names
// follow the JSON the upload screen posts back.
type MappingEntry struct {
	Header          string   `json:"header"`
	FinalMapping    string   `json:"final_mapping"`
	Suggestion      *string  `json:"llm_suggestion,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	UserEdited      bool     `json:"user_edited_mapping"`
}

// Import is the persisted record of one uploaded document.
type Import struct {
	ID               uuid.UUID    `json:"import_id"`
	Filename         string       `json:"filename"`
	Extension        string       `json:"file_extension"`
	StorageType      string       `json:"storage_type"`
	LocalPath        string       `json:"local_path,omitempty"`
	Status           ImportStatus `json:"processing_status"`
	UploadedAt       time.Time    `json:"upload_time"`
	StatusChangedAt  time.Time    `json:"status_changed_at"`
	FieldsSeen       int64        `json:"total_fields"`
	FieldsNormalized int64        `json:"normalized_fields"`
	FieldsFailed     int64        `json:"failed_fields"`
}

// FieldTotals are the three running counters persisted on the import record.
type FieldTotals struct {
	Seen       int64
	Normalized int64
	Failed     int64
}

// Patient is the patient attribute bag of one row.
type Patient struct {
	MemberID  pgtype.Text
	FirstName pgtype.Text
	LastName  pgtype.Text
	DOB       pgtype.Date
	Gender    pgtype.Text
	Email     pgtype.Text
	Phone     pgtype.Text
	Address   pgtype.Text
}

// Empty reports whether no attribute was set.
func (p Patient) Empty() bool {
	return !p.MemberID.Valid && !p.FirstName.Valid && !p.LastName.Valid && !p.DOB.Valid &&
		!p.Gender.Valid && !p.Email.Valid && !p.Phone.Valid && !p.Address.Valid
}

// Provider is the provider attribute bag of one row.
type Provider struct {
	NPINumber    pgtype.Text
	ProviderName pgtype.Text
}

func (p Provider) Empty() bool {
	return !p.NPINumber.Valid && !p.ProviderName.Valid
}

// Policy is the policy attribute bag of one row.
type Policy struct {
	PolicyNumber    pgtype.Text
	PlanName        pgtype.Text
	GroupNumber     pgtype.Text
	PolicyStartDate pgtype.Date
	PolicyEndDate   pgtype.Date
}

func (p Policy) Empty() bool {
	return !p.PolicyNumber.Valid && !p.PlanName.Valid && !p.GroupNumber.Valid &&
		!p.PolicyStartDate.Valid && !p.PolicyEndDate.Valid
}

// Claim is the claim attribute bag of one row. Extra holds mapped fields
// that are not part of the claim schema.
type Claim struct {
	ClaimDate       pgtype.Date
	AdmissionDate   pgtype.Date
	DischargeDate   pgtype.Date
	AmountClaimed   pgtype.Numeric
	AmountApproved  pgtype.Numeric
	ClaimStatus     pgtype.Text
	RejectionReason pgtype.Text
	Extra           map[string]string
}

func (c Claim) Empty() bool {
	return !c.ClaimDate.Valid && !c.AdmissionDate.Valid && !c.DischargeDate.Valid &&
		!c.AmountClaimed.Valid && !c.AmountApproved.Valid && !c.ClaimStatus.Valid &&
		!c.RejectionReason.Valid && len(c.Extra) == 0
}

// Diagnosis is one diagnosis attribute bag.
type Diagnosis struct {
	Code        pgtype.Text
	Description pgtype.Text
}

func (d Diagnosis) Empty() bool {
	return !d.Code.Valid && !d.Description.Valid
}

// EntityBags holds every attribute bag assembled from one row.
type EntityBags struct {
	Patient   Patient
	Provider  Provider
	Policy    Policy
	Claim     Claim
	Diagnoses []Diagnosis
}

// HasAnyData reports whether at least one bag is non-empty.
func (b *EntityBags) HasAnyData() bool {
	if !b.Patient.Empty() || !b.Provider.Empty() || !b.Policy.Empty() || !b.Claim.Empty() {
		return true
	}
	for _, d := range b.Diagnoses {
		if !d.Empty() {
			return true
		}
	}
	return false
}

// EntityCounts counts persisted entities by type.
type EntityCounts struct {
	Patients  int `json:"patients"`
	Providers int `json:"providers"`
	Policies  int `json:"policies"`
	Claims    int `json:"claims"`
	Diagnoses int `json:"diagnoses"`
}

// Add accumulates o into c.
func (c *EntityCounts) Add(o EntityCounts) {
	c.Patients += o.Patients
	c.Providers += o.Providers
	c.Policies += o.Policies
	c.Claims += o.Claims
	c.Diagnoses += o.Diagnoses
}

// Stats is a total/successful/failed triple with a formatted success rate.
type Stats struct {
	Total       int    `json:"total"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"success_rate"`
}

// FailedRecord describes one row that produced errors.
type FailedRecord struct {
	RowNumber int      `json:"row_number"`
	RowData   RawRow   `json:"row_data"`
	Errors    []string `json:"errors"`
}

// Summary is the result of processing one import batch.
type Summary struct {
	ImportID            uuid.UUID      `json:"import_id"`
	Status              ImportStatus   `json:"status"`
	FieldStats          Stats          `json:"field_stats"`
	RowStats            Stats          `json:"row_stats"`
	EntitiesCreated     EntityCounts   `json:"entities_created"`
	FailedRecordsSample []FailedRecord `json:"failed_records_sample"`
}
