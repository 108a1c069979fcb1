package core

import "github.com/JonMunkholm/claimsimport/internal/schema"

// Route returns the entity bucket for a target field. Fields that are not
// patient, provider, policy or diagnosis attributes land on the claim.
func Route(field string) schema.Entity {
	return schema.EntityOf(field)
}
