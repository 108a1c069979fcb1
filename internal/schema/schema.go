// Package schema defines the fixed target schema that imported claim
// documents are mapped onto.
//
// The registry is the single source of truth for target field names. The
// entity router, the field normalizer, the mapping suggester and the report
// builder all read from it.
package schema

import "strings"

// Entity identifies the persisted record a target field belongs to.
type Entity string

const (
	EntityPatient   Entity = "Patient"
	EntityProvider  Entity = "Provider"
	EntityPolicy    Entity = "Policy"
	EntityClaim     Entity = "Claim"
	EntityDiagnosis Entity = "Diagnosis"
)

// Entities lists every entity in insertion order.
var Entities = []Entity{EntityPatient, EntityProvider, EntityPolicy, EntityClaim, EntityDiagnosis}

// Kind describes how a raw value for a field is normalized.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindAmount
	KindGender
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindAmount:
		return "amount"
	case KindGender:
		return "gender"
	default:
		return "text"
	}
}

// Unmapped is the mapping value meaning "do not load this header".
const Unmapped = "Unmapped"

// IsUnmapped reports whether a confirmed mapping value is empty or the
// unmapped sentinel. The comparison ignores case and surrounding space.
func IsUnmapped(target string) bool {
	target = strings.TrimSpace(target)
	return target == "" || strings.EqualFold(target, Unmapped)
}

// Field describes one target schema field.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Entity  Entity   `json:"entity"`
	Kind    Kind     `json:"-"`
	Column  string   `json:"column"`
	Aliases []string `json:"aliases,omitempty"`
}
