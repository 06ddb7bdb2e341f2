package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/names"
	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
)

// maxSubmittedNameLen bounds raw submissions; anything longer is junk input.
const maxSubmittedNameLen = 200

// defaultStarRating applies when the submitter doesn't rate the contractor.
const defaultStarRating = 3

// SubmitRequest carries one contractor submission. RiskTags and StarRating
// are owner-entered metadata with no resolution semantics.
type SubmitRequest struct {
	OrgID           uuid.UUID
	RawName         string
	City            string
	Region          string
	RiskTags        []string
	StarRating      int
	SubmittedBy     *uuid.UUID
	OriginProjectID *uuid.UUID
}

// SubmitResult is the outcome of a submission: the provisional contractor
// and its queue item. When the analysis recommends a merge, the queue item
// carries the suggested existing contractor, but that is advisory; the
// provisional record is always usable right away.
type SubmitResult struct {
	Contractor *models.Contractor      `json:"contractor"`
	QueueItem  *models.ReviewQueueItem `json:"queue_item"`
}

// SubmissionService intakes contractor names. Every submission produces a
// provisional contractor and a review queue item in one transaction; the
// caller can keep working with the provisional record immediately while a
// reviewer decides its fate. Duplicate spellings are resolved by the
// reviewer through a merge, never collapsed silently at intake.
type SubmissionService interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

type submissionService struct {
	contractorRepo repositories.ContractorRepository
	queueRepo      repositories.ReviewQueueRepository
	referenceRepo  repositories.ReferenceRepository
	roster         RosterService
	oracle         oracle.Oracle
	logger         *zap.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	contractorRepo repositories.ContractorRepository,
	queueRepo repositories.ReviewQueueRepository,
	referenceRepo repositories.ReferenceRepository,
	roster RosterService,
	analysisOracle oracle.Oracle,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		contractorRepo: contractorRepo,
		queueRepo:      queueRepo,
		referenceRepo:  referenceRepo,
		roster:         roster,
		oracle:         analysisOracle,
		logger:         logger.Named("submission"),
	}
}

var _ SubmissionService = (*submissionService)(nil)

func (s *submissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	key := names.Key(req.RawName)
	if key == "" {
		return nil, fmt.Errorf("%w: contractor name is required", apperrors.ErrValidation)
	}
	if len(req.RawName) > maxSubmittedNameLen {
		return nil, fmt.Errorf("%w: contractor name exceeds %d characters", apperrors.ErrValidation, maxSubmittedNameLen)
	}
	if req.SubmittedBy == nil {
		return nil, fmt.Errorf("%w: submitter is required", apperrors.ErrValidation)
	}

	analysis := s.analyze(ctx, req)

	// Suspicious input never blocks intake; the reviewer sees the flag.
	if found, _ := libinjection.IsSQLi(req.RawName); found {
		analysis.Warnings = append(analysis.Warnings, "submitted name contains SQL-like content")
	}

	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txCtx := database.SetOrgScope(ctx, database.NewScope(tx))

	starRating := req.StarRating
	if starRating == 0 {
		starRating = defaultStarRating
	}
	name := analysis.FormattedName
	if name == "" {
		name = names.Normalize(req.RawName)
	}
	contractor := &models.Contractor{
		OrgID:      req.OrgID,
		Name:       name,
		RiskTags:   req.RiskTags,
		StarRating: starRating,
		Approved:   false,
		CreatedBy:  req.SubmittedBy,
	}
	if req.City != "" {
		contractor.City = &req.City
	}
	if req.Region != "" {
		contractor.Region = &req.Region
	}
	if err := s.contractorRepo.Create(txCtx, contractor); err != nil {
		return nil, err
	}

	source := models.AliasSourceSubmission
	alias := &models.ContractorAlias{
		OrgID:        req.OrgID,
		ContractorID: contractor.ID,
		Alias:        key,
		Source:       &source,
	}
	if err := s.contractorRepo.AddAlias(txCtx, alias); err != nil {
		return nil, err
	}

	var reasoning *string
	if analysis.Reasoning != "" {
		reasoning = &analysis.Reasoning
	}
	item := &models.ReviewQueueItem{
		OrgID:                   req.OrgID,
		SubmittedName:           req.RawName,
		SubmittedBy:             req.SubmittedBy,
		ProvisionalContractorID: &contractor.ID,
		Recommendation:          analysis.Recommendation,
		Confidence:              analysis.Confidence,
		SuggestedMatchID:        analysis.SuggestedMatchID,
		Reasoning:               reasoning,
		Warnings:                analysis.Warnings,
		OriginProjectID:         req.OriginProjectID,
	}
	if req.City != "" {
		item.City = &req.City
	}
	if req.Region != "" {
		item.Region = &req.Region
	}
	if err := s.queueRepo.Create(txCtx, item); err != nil {
		return nil, err
	}

	if req.OriginProjectID != nil {
		ref := &models.ProjectContractorRef{
			OrgID:        req.OrgID,
			ProjectID:    *req.OriginProjectID,
			ContractorID: &contractor.ID,
		}
		if err := s.referenceRepo.Attach(txCtx, ref); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	s.logger.Info("Submission queued for review",
		zap.String("org_id", req.OrgID.String()),
		zap.String("contractor_id", contractor.ID.String()),
		zap.String("recommendation", analysis.Recommendation),
		zap.Float64("confidence", analysis.Confidence))

	return &SubmitResult{Contractor: contractor, QueueItem: item}, nil
}

// analyze runs the duplicate analysis, falling back to a neutral verdict
// whenever the oracle or the roster is unavailable. Submissions must never
// fail because analysis did.
func (s *submissionService) analyze(ctx context.Context, req SubmitRequest) *oracle.SubmissionAnalysis {
	roster, err := s.roster.Roster(ctx, req.OrgID)
	if err != nil {
		s.logger.Warn("Roster unavailable for submission analysis", zap.Error(err))
		return fallbackAnalysis(req.RawName)
	}

	analysis, err := s.oracle.AnalyzeSubmission(ctx, oracle.SubmissionRequest{
		RawName: req.RawName,
		City:    req.City,
		Region:  req.Region,
		Roster:  roster,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrOracleDegraded) {
			s.logger.Error("Unexpected analysis failure", zap.Error(err))
		} else {
			s.logger.Warn("Duplicate analysis degraded", zap.Error(err))
		}
		return fallbackAnalysis(req.RawName)
	}

	return analysis
}

func fallbackAnalysis(rawName string) *oracle.SubmissionAnalysis {
	return &oracle.SubmissionAnalysis{
		Recommendation: models.RecommendationNew,
		Confidence:     0.5,
		FormattedName:  names.Normalize(rawName),
		Reasoning:      "Automated duplicate analysis was unavailable; treat as unverified.",
		Warnings:       []string{"duplicate analysis unavailable"},
	}
}
