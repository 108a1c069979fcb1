package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// entitySource is the FROM clause that reaches an entity table from the
// claims of one import ($1).
var entitySource = map[string]string{
	"patient":         "claim c JOIN patient t ON t.patient_id = c.patient_id",
	"provider":        "claim c JOIN provider t ON t.provider_id = c.provider_id",
	"policy":          "claim c JOIN policy t ON t.policy_id = c.policy_id",
	"claim":           "claim c JOIN claim t ON t.claim_id = c.claim_id",
	"claim_diagnosis": "claim c JOIN claim_diagnosis t ON t.claim_id = c.claim_id",
}

type ColumnStatsRow struct {
	Populated int64
	Empty     int64
	Samples   []string
}

// ColumnStats counts populated and NULL values of one column over the rows
// linked to an import and returns up to limit distinct sample values. For
// claim.extra the column names a JSON key. The caller passes table and
// column names from the fixed schema; they are quoted here.
func (q *Queries) ColumnStats(ctx context.Context, importID pgtype.UUID, table, column string, extraKey bool, limit int) (ColumnStatsRow, error) {
	from, ok := entitySource[table]
	if !ok {
		return ColumnStatsRow{}, fmt.Errorf("unknown table %q", table)
	}

	expr := "t." + pgx.Identifier{column}.Sanitize() + "::text"
	args := []any{importID, limit}
	if extraKey {
		expr = "t.extra ->> $3"
		args = append(args, column)
	}

	sql := fmt.Sprintf(`SELECT
    count(%[1]s) AS populated,
    count(*) - count(%[1]s) AS empty,
    coalesce((SELECT array_agg(v) FROM (
        SELECT DISTINCT %[1]s AS v FROM %[2]s WHERE c.import_id = $1 AND %[1]s IS NOT NULL LIMIT $2
    ) s), '{}') AS samples
FROM %[2]s
WHERE c.import_id = $1`, expr, from)

	var i ColumnStatsRow
	err := q.db.QueryRow(ctx, sql, args...).Scan(&i.Populated, &i.Empty, &i.Samples)
	return i, err
}

const analyticsSummary = `-- name: AnalyticsSummary :one
SELECT
    count(*) AS total_files,
    coalesce(sum(total_fields), 0)::bigint AS total_fields,
    coalesce(sum(normalized_fields), 0)::bigint AS normalized_fields,
    coalesce(sum(failed_fields), 0)::bigint AS failed_fields,
    count(*) FILTER (WHERE processing_status = 'Uploaded') AS uploaded,
    count(*) FILTER (WHERE processing_status = 'Mapping') AS mapping,
    count(*) FILTER (WHERE processing_status = 'Success') AS success,
    count(*) FILTER (WHERE processing_status = 'Failed') AS failed
FROM file_import`

type AnalyticsSummaryRow struct {
	TotalFiles       int64
	TotalFields      int64
	NormalizedFields int64
	FailedFields     int64
	Uploaded         int64
	Mapping          int64
	Success          int64
	Failed           int64
}

func (q *Queries) AnalyticsSummary(ctx context.Context) (AnalyticsSummaryRow, error) {
	var i AnalyticsSummaryRow
	err := q.db.QueryRow(ctx, analyticsSummary).Scan(
		&i.TotalFiles,
		&i.TotalFields,
		&i.NormalizedFields,
		&i.FailedFields,
		&i.Uploaded,
		&i.Mapping,
		&i.Success,
		&i.Failed,
	)
	return i, err
}

const listClaimsForExport = `-- name: ListClaimsForExport :many
SELECT
    c.claim_id,
    p.member_id,
    p.first_name,
    p.last_name,
    pr.npi_number,
    pr.provider_name,
    po.policy_number,
    c.claim_date,
    c.admission_date,
    c.discharge_date,
    c.amount_claimed,
    c.amount_approved,
    c.claim_status,
    c.rejection_reason,
    coalesce((SELECT array_agg(d.diagnosis_code ORDER BY d.diagnosis_code)
              FROM claim_diagnosis d
              WHERE d.claim_id = c.claim_id AND d.diagnosis_code IS NOT NULL), '{}') AS diagnosis_codes
FROM claim c
LEFT JOIN patient p ON p.patient_id = c.patient_id
LEFT JOIN provider pr ON pr.provider_id = c.provider_id
LEFT JOIN policy po ON po.policy_id = c.policy_id
WHERE c.import_id = $1
ORDER BY c.claim_id`

type ListClaimsForExportRow struct {
	ClaimID         pgtype.UUID
	MemberID        pgtype.Text
	FirstName       pgtype.Text
	LastName        pgtype.Text
	NpiNumber       pgtype.Text
	ProviderName    pgtype.Text
	PolicyNumber    pgtype.Text
	ClaimDate       pgtype.Date
	AdmissionDate   pgtype.Date
	DischargeDate   pgtype.Date
	AmountClaimed   pgtype.Numeric
	AmountApproved  pgtype.Numeric
	ClaimStatus     pgtype.Text
	RejectionReason pgtype.Text
	DiagnosisCodes  []string
}

func (q *Queries) ListClaimsForExport(ctx context.Context, importID pgtype.UUID) ([]ListClaimsForExportRow, error) {
	rows, err := q.db.Query(ctx, listClaimsForExport, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListClaimsForExportRow
	for rows.Next() {
		var i ListClaimsForExportRow
		if err := rows.Scan(
			&i.ClaimID,
			&i.MemberID,
			&i.FirstName,
			&i.LastName,
			&i.NpiNumber,
			&i.ProviderName,
			&i.PolicyNumber,
			&i.ClaimDate,
			&i.AdmissionDate,
			&i.DischargeDate,
			&i.AmountClaimed,
			&i.AmountApproved,
			&i.ClaimStatus,
			&i.RejectionReason,
			&i.DiagnosisCodes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
