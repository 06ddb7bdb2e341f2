package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contractor represents a general contractor record, canonical or provisional.
// Stored in engine_contractors. A contractor created through the submission
// pipeline starts unapproved and becomes canonical only through the review
// workflow (or it is absorbed into an existing record by a merge).
type Contractor struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	Name       string     `json:"name"`
	City       *string    `json:"city,omitempty"`
	Region     *string    `json:"region,omitempty"`
	RiskTags   []string   `json:"risk_tags,omitempty"`   // Owner-entered, not authoritative
	StarRating int        `json:"star_rating"`           // Owner-entered, not authoritative
	Approved   bool       `json:"approved"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	ApprovedBy *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DisplayName renders the name with location, e.g. "Turner Construction (Denver, CO)".
func (c *Contractor) DisplayName() string {
	if c.City != nil && *c.City != "" && c.Region != nil && *c.Region != "" {
		return fmt.Sprintf("%s (%s, %s)", c.Name, *c.City, *c.Region)
	}
	if c.City != nil && *c.City != "" {
		return fmt.Sprintf("%s (%s)", c.Name, *c.City)
	}
	return c.Name
}

// ContractorAlias represents one normalized spelling known to refer to a
// contractor, including every past submitted spelling that resolved to it.
// Stored in engine_contractor_aliases with a UNIQUE (org_id, alias)
// constraint: no two contractors in an organization may claim the same alias.
type ContractorAlias struct {
	ID           uuid.UUID `json:"id"`
	OrgID        uuid.UUID `json:"org_id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	Alias        string    `json:"alias"`
	Source       *string   `json:"source,omitempty"` // 'submission', 'merge', 'import'
	CreatedAt    time.Time `json:"created_at"`
}

// Alias source constants.
const (
	AliasSourceSubmission = "submission"
	AliasSourceMerge      = "merge"
	AliasSourceImport     = "import"
)
