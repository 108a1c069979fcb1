package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// LoadedRow holds the identifiers produced for one row.
type LoadedRow struct {
	PatientID    uuid.UUID
	ProviderID   uuid.UUID
	PolicyID     uuid.UUID
	ClaimID      uuid.UUID
	DiagnosisIDs []uuid.UUID
}

// Counts returns how many entities of each type were written.
func (l LoadedRow) Counts() EntityCounts {
	var c EntityCounts
	if l.PatientID != uuid.Nil {
		c.Patients = 1
	}
	if l.ProviderID != uuid.Nil {
		c.Providers = 1
	}
	if l.PolicyID != uuid.Nil {
		c.Policies = 1
	}
	if l.ClaimID != uuid.Nil {
		c.Claims = 1
	}
	c.Diagnoses = len(l.DiagnosisIDs)
	return c
}

// LoadRow writes the bags of one row in dependency order:
//
//  1. patient, when its bag is non-empty
//  2. provider, when its bag is non-empty
//  3. policy, when its bag is non-empty and a provider was written
//  4. exactly one claim, linked to whatever was written above
//  5. one diagnosis per non-empty diagnosis bag
//
// The caller runs LoadRow inside BatchTx.LoadRow so an error undoes every
// write of the row.
func LoadRow(ctx context.Context, w EntityWriter, importID uuid.UUID, bags *EntityBags) (LoadedRow, error) {
	var out LoadedRow

	if !bags.Patient.Empty() {
		id := uuid.New()
		if err := w.InsertPatient(ctx, id, bags.Patient); err != nil {
			return LoadedRow{}, fmt.Errorf("insert patient: %w", err)
		}
		out.PatientID = id
	}

	if !bags.Provider.Empty() {
		id := uuid.New()
		if err := w.InsertProvider(ctx, id, bags.Provider); err != nil {
			return LoadedRow{}, fmt.Errorf("insert provider: %w", err)
		}
		out.ProviderID = id
	}

	// A policy without a provider is skipped.
	if !bags.Policy.Empty() && out.ProviderID != uuid.Nil {
		id := uuid.New()
		if err := w.InsertPolicy(ctx, id, out.ProviderID, bags.Policy); err != nil {
			return LoadedRow{}, fmt.Errorf("insert policy: %w", err)
		}
		out.PolicyID = id
	}

	claimID := uuid.New()
	links := ClaimLinks{
		ImportID:   importID,
		PatientID:  out.PatientID,
		ProviderID: out.ProviderID,
		PolicyID:   out.PolicyID,
	}
	if err := w.InsertClaim(ctx, claimID, links, bags.Claim); err != nil {
		return LoadedRow{}, fmt.Errorf("insert claim: %w", err)
	}
	out.ClaimID = claimID

	for _, d := range bags.Diagnoses {
		if d.Empty() {
			continue
		}
		id := uuid.New()
		if err := w.InsertDiagnosis(ctx, id, claimID, d); err != nil {
			return LoadedRow{}, fmt.Errorf("insert diagnosis: %w", err)
		}
		out.DiagnosisIDs = append(out.DiagnosisIDs, id)
	}

	return out, nil
}
