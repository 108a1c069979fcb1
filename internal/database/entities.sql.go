package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPatient = `-- name: InsertPatient :exec
INSERT INTO patient (patient_id, member_id, first_name, last_name, dob, gender, email, phone, address)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

type InsertPatientParams struct {
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

func (q *Queries) InsertPatient(ctx context.Context, arg InsertPatientParams) error {
	_, err := q.db.Exec(ctx, insertPatient,
		arg.PatientID,
		arg.MemberID,
		arg.FirstName,
		arg.LastName,
		arg.Dob,
		arg.Gender,
		arg.Email,
		arg.Phone,
		arg.Address,
	)
	return err
}

const insertProvider = `-- name: InsertProvider :exec
INSERT INTO provider (provider_id, npi_number, provider_name)
VALUES ($1, $2, $3)`

type InsertProviderParams struct {
	ProviderID   pgtype.UUID
	NpiNumber    pgtype.Text
	ProviderName pgtype.Text
}

func (q *Queries) InsertProvider(ctx context.Context, arg InsertProviderParams) error {
	_, err := q.db.Exec(ctx, insertProvider, arg.ProviderID, arg.NpiNumber, arg.ProviderName)
	return err
}

const insertPolicy = `-- name: InsertPolicy :exec
INSERT INTO policy (policy_id, provider_id, policy_number, plan_name, group_number, policy_start_date, policy_end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type InsertPolicyParams struct {
	PolicyID        pgtype.UUID
	ProviderID      pgtype.UUID
	PolicyNumber    pgtype.Text
	PlanName        pgtype.Text
	GroupNumber     pgtype.Text
	PolicyStartDate pgtype.Date
	PolicyEndDate   pgtype.Date
}

func (q *Queries) InsertPolicy(ctx context.Context, arg InsertPolicyParams) error {
	_, err := q.db.Exec(ctx, insertPolicy,
		arg.PolicyID,
		arg.ProviderID,
		arg.PolicyNumber,
		arg.PlanName,
		arg.GroupNumber,
		arg.PolicyStartDate,
		arg.PolicyEndDate,
	)
	return err
}

const insertClaim = `-- name: InsertClaim :exec
INSERT INTO claim (
    claim_id, patient_id, provider_id, policy_id, import_id,
    claim_date, admission_date, discharge_date,
    amount_claimed, amount_approved, claim_status, rejection_reason, extra
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

type InsertClaimParams struct {
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

func (q *Queries) InsertClaim(ctx context.Context, arg InsertClaimParams) error {
	_, err := q.db.Exec(ctx, insertClaim,
		arg.ClaimID,
		arg.PatientID,
		arg.ProviderID,
		arg.PolicyID,
		arg.ImportID,
		arg.ClaimDate,
		arg.AdmissionDate,
		arg.DischargeDate,
		arg.AmountClaimed,
		arg.AmountApproved,
		arg.ClaimStatus,
		arg.RejectionReason,
		arg.Extra,
	)
	return err
}

const insertClaimDiagnosis = `-- name: InsertClaimDiagnosis :exec
INSERT INTO claim_diagnosis (diagnosis_id, claim_id, diagnosis_code, diagnosis_description)
VALUES ($1, $2, $3, $4)`

type InsertClaimDiagnosisParams struct {
	DiagnosisID          pgtype.UUID
	ClaimID              pgtype.UUID
	DiagnosisCode        pgtype.Text
	DiagnosisDescription pgtype.Text
}

func (q *Queries) InsertClaimDiagnosis(ctx context.Context, arg InsertClaimDiagnosisParams) error {
	_, err := q.db.Exec(ctx, insertClaimDiagnosis,
		arg.DiagnosisID,
		arg.ClaimID,
		arg.DiagnosisCode,
		arg.DiagnosisDescription,
	)
	return err
}

const countImportEntities = `-- name: CountImportEntities :one
SELECT
    count(*) AS claims,
    count(DISTINCT c.patient_id) AS patients,
    count(DISTINCT c.provider_id) AS providers,
    count(DISTINCT c.policy_id) AS policies,
    (SELECT count(*) FROM claim_diagnosis d JOIN claim c2 ON c2.claim_id = d.claim_id WHERE c2.import_id = $1) AS diagnoses
FROM claim c
WHERE c.import_id = $1`

type CountImportEntitiesRow struct {
	Claims    int64
	Patients  int64
	Providers int64
	Policies  int64
	Diagnoses int64
}

func (q *Queries) CountImportEntities(ctx context.Context, importID pgtype.UUID) (CountImportEntitiesRow, error) {
	var i CountImportEntitiesRow
	err := q.db.QueryRow(ctx, countImportEntities, importID).Scan(
		&i.Claims,
		&i.Patients,
		&i.Providers,
		&i.Policies,
		&i.Diagnoses,
	)
	return i, err
}
