package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/core"
)

// Analytics summarizes every import.
type Analytics struct {
	Summary AnalyticsSummary `json:"summary"`
	Files   []FileEntry      `json:"files"`
}

type AnalyticsSummary struct {
	TotalFiles        int64            `json:"total_uploaded_files"`
	SuccessfulFiles   int64            `json:"successful_files"`
	FailedFiles       int64            `json:"failed_files"`
	PendingFiles      int64            `json:"pending_files"` // not yet Success or Failed
	SuccessPercentage string           `json:"success_percentage"`
	TotalFields       int64            `json:"total_records_extracted"`
	NormalizedFields  int64            `json:"total_records_inserted"`
	FailedFields      int64            `json:"total_records_failed"`
	StatusCounts      map[string]int64 `json:"status_counts"`
}

// FileEntry is one line of the analytics file list.
type FileEntry struct {
	ImportID   uuid.UUID         `json:"import_id"`
	Filename   string            `json:"filename"`
	Status     core.ImportStatus `json:"status"`
	UploadedAt time.Time         `json:"uploaded_time"`
	Processed  bool              `json:"processed"`
}

// Analytics totals the counters of all imports. Files are listed newest
// first.
func (b *Builder) Analytics(ctx context.Context) (*Analytics, error) {
	sum, err := b.q.AnalyticsSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics summary: %w", err)
	}

	rows, err := b.q.ListFileImports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}

	var pending int64
	files := make([]FileEntry, len(rows))
	for i, r := range rows {
		imp := core.ImportFromRow(r)
		files[i] = FileEntry{
			ImportID:   imp.ID,
			Filename:   imp.Filename,
			Status:     imp.Status,
			UploadedAt: imp.UploadedAt,
			Processed:  imp.Status.Terminal(),
		}
		if !files[i].Processed {
			pending++
		}
	}

	return &Analytics{
		Summary: AnalyticsSummary{
			TotalFiles:        sum.TotalFiles,
			SuccessfulFiles:   sum.Success,
			FailedFiles:       sum.Failed,
			PendingFiles:      pending,
			SuccessPercentage: core.SuccessRate(int(sum.Success), int(sum.TotalFiles)),
			TotalFields:       sum.TotalFields,
			NormalizedFields:  sum.NormalizedFields,
			FailedFields:      sum.FailedFields,
			StatusCounts: map[string]int64{
				string(core.StatusUploaded): sum.Uploaded,
				string(core.StatusMapping):  sum.Mapping,
				string(core.StatusSuccess):  sum.Success,
				string(core.StatusFailed):   sum.Failed,
			},
		},
		Files: files,
	}, nil
}
