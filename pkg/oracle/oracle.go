// Package oracle asks a language model to judge whether a contractor name
// refers to a roster entry or to a new company. It is advisory only: verdicts
// land in the review queue and a human makes the final call.
package oracle

import (
	"context"

	"github.com/google/uuid"
)

// RosterEntry is one approved contractor shown to the model for comparison.
type RosterEntry struct {
	ID      uuid.UUID
	Name    string
	City    string
	Region  string
	Aliases []string
}

// MatchRequest asks which roster entries a query string likely refers to.
type MatchRequest struct {
	Query  string
	Roster []RosterEntry
}

// Match is one candidate the model considers plausible.
type Match struct {
	ContractorID uuid.UUID `json:"contractor_id"`
	Name         string    `json:"name"`
	Score        float64   `json:"score"`
	Reasoning    string    `json:"reasoning,omitempty"`
}

// MatchResponse carries the fuzzy-match verdict. Matches below the minimum
// score never appear; IsLikelyNew is true when nothing plausible was found.
type MatchResponse struct {
	Matches       []Match
	IsLikelyNew   bool
	SuggestedName string
}

// SubmissionRequest asks for a full duplicate analysis of a submitted name.
type SubmissionRequest struct {
	RawName string
	City    string
	Region  string
	Roster  []RosterEntry
}

// SubmissionAnalysis is the verdict attached to a review queue item.
type SubmissionAnalysis struct {
	Recommendation     string // "new" or "merge"
	Confidence         float64
	SuggestedMatchID   *uuid.UUID
	SuggestedMatchName string
	FormattedName      string
	Reasoning          string
	Warnings           []string
}

// Oracle is the narrow interface the matcher and submission services consume.
type Oracle interface {
	// FindMatches returns roster entries the query plausibly refers to.
	FindMatches(ctx context.Context, req MatchRequest) (*MatchResponse, error)

	// AnalyzeSubmission produces the merge-or-new verdict for a submission.
	AnalyzeSubmission(ctx context.Context, req SubmissionRequest) (*SubmissionAnalysis, error)
}

// MinMatchScore is the floor below which a candidate match is discarded.
const MinMatchScore = 0.5
