package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const fileImportColumns = `import_id, filename, file_extension, storage_type, local_path, processing_status,
    upload_time, status_changed_at, total_fields, normalized_fields, failed_fields`

func scanFileImport(row interface{ Scan(...any) error }) (FileImport, error) {
	var i FileImport
	err := row.Scan(
		&i.ImportID,
		&i.Filename,
		&i.FileExtension,
		&i.StorageType,
		&i.LocalPath,
		&i.ProcessingStatus,
		&i.UploadTime,
		&i.StatusChangedAt,
		&i.TotalFields,
		&i.NormalizedFields,
		&i.FailedFields,
	)
	return i, err
}

const createFileImport = `-- name: CreateFileImport :one
INSERT INTO file_import (import_id, filename, file_extension, storage_type, local_path, processing_status)
VALUES ($1, $2, $3, $4, $5, 'Uploaded')
RETURNING ` + fileImportColumns

type CreateFileImportParams struct {
	ImportID      pgtype.UUID
	Filename      string
	FileExtension string
	StorageType   string
	LocalPath     pgtype.Text
}

func (q *Queries) CreateFileImport(ctx context.Context, arg CreateFileImportParams) (FileImport, error) {
	row := q.db.QueryRow(ctx, createFileImport,
		arg.ImportID,
		arg.Filename,
		arg.FileExtension,
		arg.StorageType,
		arg.LocalPath,
	)
	return scanFileImport(row)
}

const getFileImport = `-- name: GetFileImport :one
SELECT ` + fileImportColumns + `
FROM file_import
WHERE import_id = $1`

func (q *Queries) GetFileImport(ctx context.Context, importID pgtype.UUID) (FileImport, error) {
	return scanFileImport(q.db.QueryRow(ctx, getFileImport, importID))
}

const listFileImports = `-- name: ListFileImports :many
SELECT ` + fileImportColumns + `
FROM file_import
ORDER BY upload_time DESC`

func (q *Queries) ListFileImports(ctx context.Context) ([]FileImport, error) {
	rows, err := q.db.Query(ctx, listFileImports)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FileImport
	for rows.Next() {
		i, err := scanFileImport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listStaleFileImports = `-- name: ListStaleFileImports :many
SELECT ` + fileImportColumns + `
FROM file_import
WHERE processing_status = $1 AND status_changed_at < $2
ORDER BY status_changed_at`

type ListStaleFileImportsParams struct {
	ProcessingStatus string
	ChangedBefore    pgtype.Timestamptz
}

func (q *Queries) ListStaleFileImports(ctx context.Context, arg ListStaleFileImportsParams) ([]FileImport, error) {
	rows, err := q.db.Query(ctx, listStaleFileImports, arg.ProcessingStatus, arg.ChangedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FileImport
	for rows.Next() {
		i, err := scanFileImport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const setFileImportStatus = `-- name: SetFileImportStatus :execrows
UPDATE file_import
SET processing_status = $2, status_changed_at = now()
WHERE import_id = $1`

func (q *Queries) SetFileImportStatus(ctx context.Context, importID pgtype.UUID, status string) (int64, error) {
	result, err := q.db.Exec(ctx, setFileImportStatus, importID, status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const finalizeFileImport = `-- name: FinalizeFileImport :execrows
UPDATE file_import
SET total_fields = $2,
    normalized_fields = $3,
    failed_fields = $4,
    processing_status = $5,
    status_changed_at = now()
WHERE import_id = $1`

type FinalizeFileImportParams struct {
	ImportID         pgtype.UUID
	TotalFields      int64
	NormalizedFields int64
	FailedFields     int64
	ProcessingStatus string
}

func (q *Queries) FinalizeFileImport(ctx context.Context, arg FinalizeFileImportParams) (int64, error) {
	result, err := q.db.Exec(ctx, finalizeFileImport,
		arg.ImportID,
		arg.TotalFields,
		arg.NormalizedFields,
		arg.FailedFields,
		arg.ProcessingStatus,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertProcessingLog = `-- name: InsertProcessingLog :exec
INSERT INTO processing_log (log_id, import_id, header, llm_suggestion, final_mapping, confidence_score, user_edited_mapping)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type InsertProcessingLogParams struct {
	LogID             pgtype.UUID
	ImportID          pgtype.UUID
	Header            string
	LlmSuggestion     pgtype.Text
	FinalMapping      string
	ConfidenceScore   pgtype.Float8
	UserEditedMapping bool
}

func (q *Queries) InsertProcessingLog(ctx context.Context, arg InsertProcessingLogParams) error {
	_, err := q.db.Exec(ctx, insertProcessingLog,
		arg.LogID,
		arg.ImportID,
		arg.Header,
		arg.LlmSuggestion,
		arg.FinalMapping,
		arg.ConfidenceScore,
		arg.UserEditedMapping,
	)
	return err
}

const listProcessingLogs = `-- name: ListProcessingLogs :many
SELECT DISTINCT ON (header)
    log_id, import_id, log_timestamp, header, llm_suggestion, final_mapping, confidence_score, user_edited_mapping
FROM processing_log
WHERE import_id = $1
ORDER BY header, log_timestamp DESC`

// ListProcessingLogs returns the latest mapping per header of an import.
func (q *Queries) ListProcessingLogs(ctx context.Context, importID pgtype.UUID) ([]ProcessingLog, error) {
	rows, err := q.db.Query(ctx, listProcessingLogs, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProcessingLog
	for rows.Next() {
		var i ProcessingLog
		if err := rows.Scan(
			&i.LogID,
			&i.ImportID,
			&i.LogTimestamp,
			&i.Header,
			&i.LlmSuggestion,
			&i.FinalMapping,
			&i.ConfidenceScore,
			&i.UserEditedMapping,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
