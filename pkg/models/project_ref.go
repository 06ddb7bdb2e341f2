package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectContractorRef links a project to a contractor. The engine never
// creates projects; it only attaches submissions to them and rewrites
// contractor_id during merges and deletes.
type ProjectContractorRef struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"org_id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ContractorID *uuid.UUID `json:"contractor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
