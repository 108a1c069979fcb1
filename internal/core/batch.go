package core

// batch.go drives one import batch: it records the mapping audit log,
// assembles and loads every row in order, tracks the counters and writes the
// terminal status in the same transaction as the last row.
//
// Rows fail independently. A cancelled context rolls back the whole batch,
// which leaves the import in Mapping.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/logging"
)

// Row error messages.
const (
	MsgNoValidData   = "no valid data fields found"
	MsgInsertFailure = "database insertion error"
)

// ContextCheckInterval is how many rows are processed between context
// cancellation checks.
const ContextCheckInterval = 100

// BatchOptions tune the coordinator.
type BatchOptions struct {
	Grouping         DiagnosisGrouping
	FailedSampleSize int // rows kept in the failed sample
	SuccessThreshold int // percent of fields that must normalize
}

// DefaultBatchOptions returns the standard options.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Grouping:         DiagnosisSplit,
		FailedSampleSize: 5,
		SuccessThreshold: 70,
	}
}

// Coordinator processes import batches against a Store.
type Coordinator struct {
	store Store
	opts  BatchOptions
}

// NewCoordinator creates a Coordinator. Zero option fields fall back to
// the defaults.
func NewCoordinator(store Store, opts BatchOptions) *Coordinator {
	def := DefaultBatchOptions()
	if opts.Grouping == "" {
		opts.Grouping = def.Grouping
	}
	if opts.FailedSampleSize <= 0 {
		opts.FailedSampleSize = def.FailedSampleSize
	}
	if opts.SuccessThreshold <= 0 {
		opts.SuccessThreshold = def.SuccessThreshold
	}
	return &Coordinator{store: store, opts: opts}
}

// batchCounters accumulates statistics across rows.
type batchCounters struct {
	fieldsSeen       int
	fieldsNormalized int
	fieldsFailed     int
	rowsSucceeded    int
	rowsFailed       int
	entities         EntityCounts
	failed           []FailedRecord
}

// Process runs one batch for importID. Row and field problems are reported
// in the summary; only batch-level problems return an error.
func (c *Coordinator) Process(ctx context.Context, importID uuid.UUID, mappings []MappingEntry, rows []RawRow) (*Summary, error) {
	log := logging.ForImport(ctx, importID.String())

	if _, err := c.store.GetImport(ctx, importID); err != nil {
		return nil, err
	}

	if err := c.store.RecordMappings(ctx, importID, mappings); err != nil {
		return nil, fmt.Errorf("record mappings: %w", err)
	}

	log.Info("batch started", slog.Int("rows", len(rows)), slog.Int("mappings", len(mappings)))

	index := NewMappingIndex(mappings)

	tx, err := c.store.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var n batchCounters

	for i, row := range rows {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("batch cancelled after %d rows: %w", i, ctx.Err())
		}

		asm := Assemble(row, index, c.opts.Grouping)
		n.fieldsSeen += asm.Seen()
		n.fieldsNormalized += asm.Normalized
		n.fieldsFailed += len(asm.Errors)

		errs := asm.ErrorStrings()

		if !asm.HasAnyData() {
			n.rowsFailed++
			errs = append(errs, MsgNoValidData)
		} else {
			var loaded LoadedRow
			err := tx.LoadRow(ctx, func(w EntityWriter) error {
				var err error
				loaded, err = LoadRow(ctx, w, importID, &asm.Bags)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("batch cancelled at row %d: %w", i+1, ctx.Err())
				}
				var fatal *BatchError
				if errors.As(err, &fatal) {
					return nil, fatal
				}
				n.rowsFailed++
				errs = append(errs, fmt.Sprintf("%s: %v", MsgInsertFailure, err))
				log.Debug("row failed", slog.Int("row", i+1), slog.String("error", err.Error()))
			} else {
				n.rowsSucceeded++
				n.entities.Add(loaded.Counts())
			}
		}

		if len(errs) > 0 && len(n.failed) < c.opts.FailedSampleSize {
			n.failed = append(n.failed, FailedRecord{RowNumber: i + 1, RowData: row, Errors: errs})
		}
	}

	status := TerminalStatus(n.fieldsSeen, n.fieldsNormalized, c.opts.SuccessThreshold)
	totals := FieldTotals{
		Seen:       int64(n.fieldsSeen),
		Normalized: int64(n.fieldsNormalized),
		Failed:     int64(n.fieldsFailed),
	}

	if err := tx.Finalize(ctx, importID, totals, status); err != nil {
		return nil, fmt.Errorf("finalize import: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	log.Info("batch finished",
		slog.String("status", string(status)),
		slog.Int("fields_seen", n.fieldsSeen),
		slog.Int("fields_normalized", n.fieldsNormalized),
		slog.Int("rows_failed", n.rowsFailed),
	)

	return n.summary(importID, status), nil
}

func (n *batchCounters) summary(importID uuid.UUID, status ImportStatus) *Summary {
	sample := n.failed
	if sample == nil {
		sample = []FailedRecord{}
	}
	return &Summary{
		ImportID: importID,
		Status:   status,
		FieldStats: Stats{
			Total:       n.fieldsSeen,
			Successful:  n.fieldsNormalized,
			Failed:      n.fieldsFailed,
			SuccessRate: SuccessRate(n.fieldsNormalized, n.fieldsSeen),
		},
		RowStats: Stats{
			Total:       n.rowsSucceeded + n.rowsFailed,
			Successful:  n.rowsSucceeded,
			Failed:      n.rowsFailed,
			SuccessRate: SuccessRate(n.rowsSucceeded, n.rowsSucceeded+n.rowsFailed),
		},
		EntitiesCreated:     n.entities,
		FailedRecordsSample: sample,
	}
}

// TerminalStatus returns Success when at least threshold percent of the
// seen fields normalized, and Failed otherwise. No fields seen is Failed.
func TerminalStatus(seen, normalized, threshold int) ImportStatus {
	if seen > 0 && normalized*100 >= seen*threshold {
		return StatusSuccess
	}
	return StatusFailed
}

// SuccessRate formats part/total as a percentage with two decimals.
func SuccessRate(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)*100/float64(total))
}

// BatchError marks a storage failure that must abort the whole batch, such
// as a lost connection, rather than fail a single row.
type BatchError struct {
	Err error
}

func (e *BatchError) Error() string { return "batch aborted: " + e.Err.Error() }

func (e *BatchError) Unwrap() error { return e.Err }
