package models

import (
	"time"

	"github.com/google/uuid"
)

// Review queue item statuses. Items enter the queue pending and leave it
// exactly once through a single resolution action.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusMerged   = "merged"
	StatusDeleted  = "deleted"
)

// Analysis recommendations attached to a submission.
const (
	RecommendationNew   = "new"
	RecommendationMerge = "merge"
)

// ReviewQueueItem is the audit record of one contractor submission. It keeps
// the raw submitted name and the analysis verdict, and survives resolution:
// resolved items are marked, never deleted.
type ReviewQueueItem struct {
	ID            uuid.UUID `json:"id"`
	OrgID         uuid.UUID `json:"org_id"`
	SubmittedName string    `json:"submitted_name"`
	SubmittedBy   *uuid.UUID `json:"submitted_by,omitempty"`

	// ProvisionalContractorID points at the unapproved contractor created
	// alongside this item. Cleared when a merge or delete removes it.
	ProvisionalContractorID *uuid.UUID `json:"provisional_contractor_id,omitempty"`

	Recommendation   string     `json:"recommendation"`
	Confidence       float64    `json:"confidence"`
	SuggestedMatchID *uuid.UUID `json:"suggested_match_id,omitempty"`
	Reasoning        *string    `json:"reasoning,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`

	City            *string    `json:"city,omitempty"`
	Region          *string    `json:"region,omitempty"`
	OriginProjectID *uuid.UUID `json:"origin_project_id,omitempty"`

	Status         string     `json:"status"`
	ResolvedBy     *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote *string    `json:"resolution_note,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
}

// IsPending reports whether the item can still be resolved.
func (i *ReviewQueueItem) IsPending() bool {
	return i.Status == StatusPending
}

// ReviewQueueStats counts queue items by status.
type ReviewQueueStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Merged   int `json:"merged"`
	Deleted  int `json:"deleted"`
}
