package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type FileImport struct {
	ImportID         pgtype.UUID
	Filename         string
	FileExtension    string
	StorageType      string
	LocalPath        pgtype.Text
	ProcessingStatus string
	UploadTime       pgtype.Timestamptz
	StatusChangedAt  pgtype.Timestamptz
	TotalFields      int64
	NormalizedFields int64
	FailedFields     int64
}

type ProcessingLog struct {
	LogID             pgtype.UUID
	ImportID          pgtype.UUID
	LogTimestamp      pgtype.Timestamptz
	Header            string
	LlmSuggestion     pgtype.Text
	FinalMapping      string
	ConfidenceScore   pgtype.Float8
	UserEditedMapping bool
}

type Patient struct {
	PatientID pgtype.UUID
	MemberID  pgtype.Text
	FirstName pgtype.Text
	LastName  pgtype.Text
	Dob       pgtype.Date
	Gender    pgtype.Text
	Email     pgtype.Text
	Phone     pgtype.Text
	Address   pgtype.Text
}

type Provider struct {
	ProviderID   pgtype.UUID
	NpiNumber    pgtype.Text
	ProviderName pgtype.Text
}

type Policy struct {
	PolicyID        pgtype.UUID
	ProviderID      pgtype.UUID
	PolicyNumber    pgtype.Text
	PlanName        pgtype.Text
	GroupNumber     pgtype.Text
	PolicyStartDate pgtype.Date
	PolicyEndDate   pgtype.Date
}

type Claim struct {
	ClaimID         pgtype.UUID
	PatientID       pgtype.UUID
	ProviderID      pgtype.UUID
	PolicyID        pgtype.UUID
	ImportID        pgtype.UUID
	ClaimDate       pgtype.Date
	AdmissionDate   pgtype.Date
	DischargeDate   pgtype.Date
	AmountClaimed   pgtype.Numeric
	AmountApproved  pgtype.Numeric
	ClaimStatus     pgtype.Text
	RejectionReason pgtype.Text
	Extra           []byte
}

type ClaimDiagnosis struct {
	DiagnosisID          pgtype.UUID
	ClaimID              pgtype.UUID
	DiagnosisCode        pgtype.Text
	DiagnosisDescription pgtype.Text
}
