package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/llm"
	"github.com/bidintell-inc/bidiq-engine/pkg/names"
)

// llmOracle implements Oracle over an LLM client. Every call is bounded by
// the configured timeout; any transport or parse failure comes back wrapped
// in apperrors.ErrOracleDegraded so callers can fall back without guessing.
type llmOracle struct {
	client  llm.LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an LLM-backed oracle.
func New(client llm.LLMClient, timeout time.Duration, logger *zap.Logger) Oracle {
	return &llmOracle{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("oracle"),
	}
}

// matchVerdict mirrors the JSON shape the model is asked to produce.
type matchVerdict struct {
	Matches []struct {
		ContractorID string  `json:"contractor_id"`
		Name         string  `json:"name"`
		Score        float64 `json:"score"`
		Reasoning    string  `json:"reasoning"`
	} `json:"matches"`
	IsLikelyNew   bool   `json:"isLikelyNew"`
	SuggestedName string `json:"suggestedName"`
}

func (o *llmOracle) FindMatches(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.client.GenerateResponse(ctx, buildMatchPrompt(req), matchSystemMessage(), 0.2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleDegraded, err)
	}

	verdict, err := llm.ParseJSONResponse[matchVerdict](raw)
	if err != nil {
		o.logger.Warn("Unparsable match verdict",
			zap.String("query", req.Query),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleDegraded, err)
	}

	rosterByID := make(map[uuid.UUID]RosterEntry, len(req.Roster))
	for _, entry := range req.Roster {
		rosterByID[entry.ID] = entry
	}

	resp := &MatchResponse{SuggestedName: verdict.SuggestedName}
	for _, m := range verdict.Matches {
		id, err := uuid.Parse(m.ContractorID)
		if err != nil {
			o.logger.Warn("Match verdict referenced invalid id", zap.String("id", m.ContractorID))
			continue
		}
		entry, ok := rosterByID[id]
		if !ok {
			// The model invented an id. Drop the candidate.
			o.logger.Warn("Match verdict referenced unknown contractor", zap.String("id", m.ContractorID))
			continue
		}
		if m.Score < MinMatchScore {
			continue
		}
		resp.Matches = append(resp.Matches, Match{
			ContractorID: id,
			Name:         entry.Name,
			Score:        clamp01(m.Score),
			Reasoning:    m.Reasoning,
		})
	}

	resp.IsLikelyNew = len(resp.Matches) == 0
	if resp.SuggestedName == "" {
		resp.SuggestedName = names.Normalize(req.Query)
	}

	return resp, nil
}

// submissionVerdict mirrors the JSON shape the model is asked to produce.
type submissionVerdict struct {
	Recommendation     string   `json:"recommendation"`
	Confidence         float64  `json:"confidence"`
	SuggestedMatchID   string   `json:"suggestedMatchId"`
	SuggestedMatchName string   `json:"suggestedMatchName"`
	FormattedName      string   `json:"formattedName"`
	Reasoning          string   `json:"reasoning"`
	Warnings           []string `json:"warnings"`
}

func (o *llmOracle) AnalyzeSubmission(ctx context.Context, req SubmissionRequest) (*SubmissionAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.client.GenerateResponse(ctx, buildSubmissionPrompt(req), submissionSystemMessage(), 0.2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleDegraded, err)
	}

	verdict, err := llm.ParseJSONResponse[submissionVerdict](raw)
	if err != nil {
		o.logger.Warn("Unparsable submission verdict",
			zap.String("raw_name", req.RawName),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleDegraded, err)
	}

	analysis := &SubmissionAnalysis{
		Recommendation:     verdict.Recommendation,
		Confidence:         clamp01(verdict.Confidence),
		SuggestedMatchName: verdict.SuggestedMatchName,
		FormattedName:      verdict.FormattedName,
		Reasoning:          verdict.Reasoning,
		Warnings:           verdict.Warnings,
	}

	if analysis.FormattedName == "" {
		analysis.FormattedName = names.Normalize(req.RawName)
	}

	switch analysis.Recommendation {
	case "merge":
		id, err := uuid.Parse(verdict.SuggestedMatchID)
		if err != nil {
			analysis.demoteToNew("suggested match id was not valid")
			break
		}
		if !rosterContains(req.Roster, id) {
			analysis.demoteToNew("suggested match was not on the roster")
			break
		}
		analysis.SuggestedMatchID = &id
	case "new":
		// Nothing to verify.
	default:
		return nil, fmt.Errorf("%w: unknown recommendation %q", apperrors.ErrOracleDegraded, verdict.Recommendation)
	}

	return analysis, nil
}

// demoteToNew downgrades an unverifiable merge verdict rather than discarding
// the whole analysis. The reviewer sees the warning alongside the item.
func (a *SubmissionAnalysis) demoteToNew(reason string) {
	a.Recommendation = "new"
	a.SuggestedMatchID = nil
	a.SuggestedMatchName = ""
	a.Warnings = append(a.Warnings, "merge suggestion dropped: "+reason)
}

func rosterContains(roster []RosterEntry, id uuid.UUID) bool {
	for _, entry := range roster {
		if entry.ID == id {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
