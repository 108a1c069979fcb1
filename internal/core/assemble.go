package core

// assemble.go builds the entity bags for one raw row.
//
// Each mapped cell is normalized and routed to its bag. A failed cell is
// recorded and skipped; it never stops the rest of the row. Headers with no
// mapping, or mapped to the unmapped sentinel, are ignored entirely.

import (
	"fmt"

	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// DiagnosisGrouping controls how diagnosis fields of one row become bags.
type DiagnosisGrouping string

const (
	// DiagnosisSplit starts a new diagnosis bag for every diagnosis field.
	DiagnosisSplit DiagnosisGrouping = "split"
	// DiagnosisMerged collects every diagnosis field of a row into one bag.
	DiagnosisMerged DiagnosisGrouping = "merged"
)

// CellError is a field error tied to its source header.
type CellError struct {
	Header string
	Err    *FieldError
}

func (e CellError) String() string {
	return fmt.Sprintf("%s: %s", e.Header, e.Err.Reason)
}

// AssembledRow is the result of assembling one raw row.
type AssembledRow struct {
	Bags       EntityBags
	Errors     []CellError
	Cells      int // every cell of the row, mapped or not
	Normalized int // cells that produced a value
}

// Seen returns the number of cells in the row. Unmapped cells are neither
// normalized nor failed but still count toward the total, so
// Seen() >= Normalized + len(Errors).
func (a *AssembledRow) Seen() int {
	return a.Cells
}

// HasAnyData reports whether at least one bag is non-empty.
func (a *AssembledRow) HasAnyData() bool {
	return a.Bags.HasAnyData()
}

// ErrorStrings renders each cell error as "header: reason".
func (a *AssembledRow) ErrorStrings() []string {
	out := make([]string, len(a.Errors))
	for i, e := range a.Errors {
		out[i] = e.String()
	}
	return out
}

// MappingIndex maps a source header to its confirmed target field. Only
// real mappings are kept.
type MappingIndex map[string]string

// NewMappingIndex builds an index from mapping entries, dropping unmapped
// headers. A later entry for the same header wins.
func NewMappingIndex(entries []MappingEntry) MappingIndex {
	idx := make(MappingIndex, len(entries))
	for _, e := range entries {
		if schema.IsUnmapped(e.FinalMapping) {
			delete(idx, e.Header)
			continue
		}
		idx[e.Header] = e.FinalMapping
	}
	return idx
}

// Assemble normalizes and routes every mapped cell of row.
func Assemble(row RawRow, mapping MappingIndex, grouping DiagnosisGrouping) AssembledRow {
	out := AssembledRow{Cells: len(row)}

	for _, cell := range row {
		field, ok := mapping[cell.Header]
		if !ok {
			continue
		}

		v, err := Normalize(field, cell.Value)
		if err != nil {
			fe, ok := err.(*FieldError)
			if !ok {
				fe = &FieldError{Field: field, Reason: err.Error()}
			}
			out.Errors = append(out.Errors, CellError{Header: cell.Header, Err: fe})
			continue
		}

		v.Field = field
		out.Normalized++
		out.Bags.put(v, grouping)
	}

	return out
}

// put stores v on the bag its field routes to.
func (b *EntityBags) put(v Value, grouping DiagnosisGrouping) {
	switch Route(v.Field) {
	case schema.EntityPatient:
		b.Patient.set(v)
	case schema.EntityProvider:
		b.Provider.set(v)
	case schema.EntityPolicy:
		b.Policy.set(v)
	case schema.EntityDiagnosis:
		if grouping == DiagnosisMerged && len(b.Diagnoses) > 0 {
			b.Diagnoses[len(b.Diagnoses)-1].set(v)
			return
		}
		var d Diagnosis
		d.set(v)
		b.Diagnoses = append(b.Diagnoses, d)
	default:
		b.Claim.set(v)
	}
}

func (p *Patient) set(v Value) {
	switch v.Field {
	case "member_id":
		p.MemberID = ToPgText(v.Text)
	case "first_name":
		p.FirstName = ToPgText(v.Text)
	case "last_name":
		p.LastName = ToPgText(v.Text)
	case "dob":
		p.DOB = ToPgDate(v.Date)
	case "gender":
		p.Gender = ToPgText(v.Text)
	case "email":
		p.Email = ToPgText(v.Text)
	case "phone":
		p.Phone = ToPgText(v.Text)
	case "address":
		p.Address = ToPgText(v.Text)
	}
}

func (p *Provider) set(v Value) {
	switch v.Field {
	case "npi_number":
		p.NPINumber = ToPgText(v.Text)
	case "provider_name":
		p.ProviderName = ToPgText(v.Text)
	}
}

func (p *Policy) set(v Value) {
	switch v.Field {
	case "policy_number":
		p.PolicyNumber = ToPgText(v.Text)
	case "plan_name":
		p.PlanName = ToPgText(v.Text)
	case "group_number":
		p.GroupNumber = ToPgText(v.Text)
	case "policy_start_date":
		p.PolicyStartDate = ToPgDate(v.Date)
	case "policy_end_date":
		p.PolicyEndDate = ToPgDate(v.Date)
	}
}

func (d *Diagnosis) set(v Value) {
	switch v.Field {
	case "diagnosis_code":
		d.Code = ToPgText(v.Text)
	case "diagnosis_description":
		d.Description = ToPgText(v.Text)
	}
}

func (c *Claim) set(v Value) {
	switch v.Field {
	case "claim_date":
		c.ClaimDate = ToPgDate(v.Date)
	case "admission_date":
		c.AdmissionDate = ToPgDate(v.Date)
	case "discharge_date":
		c.DischargeDate = ToPgDate(v.Date)
	case "amount_claimed":
		c.AmountClaimed = ToPgNumeric(v.Amount)
	case "amount_approved":
		c.AmountApproved = ToPgNumeric(v.Amount)
	case "claim_status":
		c.ClaimStatus = ToPgText(v.Text)
	case "rejection_reason":
		c.RejectionReason = ToPgText(v.Text)
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[v.Field] = v.String()
	}
}
