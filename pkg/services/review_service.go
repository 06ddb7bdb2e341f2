package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/repositories"
)

// ReviewService resolves pending submissions. Every transition runs in one
// transaction and requires the item to still be pending: a second resolution
// attempt fails with ErrInvalidState and changes nothing. Resolved items stay
// in the queue as the audit trail.
type ReviewService interface {
	ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error)
	Stats(ctx context.Context) (*models.ReviewQueueStats, error)

	// Approve promotes the provisional contractor to the approved roster.
	// A non-nil formattedName overwrites the provisional name.
	Approve(ctx context.Context, orgID, itemID uuid.UUID, formattedName *string, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)

	// Merge folds the provisional contractor into targetID. A nil targetID
	// uses the analysis suggestion. Project references move, aliases move,
	// the provisional record is deleted.
	Merge(ctx context.Context, orgID, itemID uuid.UUID, targetID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)

	// Delete discards the submission: references are severed, the
	// provisional record is removed.
	Delete(ctx context.Context, orgID, itemID uuid.UUID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)
}

type reviewService struct {
	contractorRepo repositories.ContractorRepository
	queueRepo      repositories.ReviewQueueRepository
	referenceRepo  repositories.ReferenceRepository
	roster         RosterService
	logger         *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	contractorRepo repositories.ContractorRepository,
	queueRepo repositories.ReviewQueueRepository,
	referenceRepo repositories.ReferenceRepository,
	roster RosterService,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		contractorRepo: contractorRepo,
		queueRepo:      queueRepo,
		referenceRepo:  referenceRepo,
		roster:         roster,
		logger:         logger.Named("review"),
	}
}

var _ ReviewService = (*reviewService)(nil)

func (s *reviewService) ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error) {
	return s.queueRepo.ListPending(ctx)
}

func (s *reviewService) Stats(ctx context.Context) (*models.ReviewQueueStats, error) {
	return s.queueRepo.CountByStatus(ctx)
}

func (s *reviewService) Approve(ctx context.Context, orgID, itemID uuid.UUID, formattedName *string, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	var resolved *models.ReviewQueueItem
	var contractorID uuid.UUID

	err := s.inTransaction(ctx, func(txCtx context.Context) error {
		item, provisional, err := s.loadPendingItem(txCtx, itemID)
		if err != nil {
			return err
		}
		contractorID = provisional.ID

		name := provisional.Name
		if formattedName != nil && *formattedName != "" {
			name = *formattedName
		}

		if err := s.contractorRepo.Approve(txCtx, provisional.ID, name, reviewerID); err != nil {
			return err
		}

		note := fmt.Sprintf("Approved as new contractor %q", name)
		if err := s.queueRepo.MarkResolved(txCtx, item.ID, models.StatusApproved, reviewerID, note); err != nil {
			return err
		}

		resolved, err = s.queueRepo.GetByID(txCtx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.roster.Invalidate(ctx, orgID)
	s.logger.Info("Submission approved",
		zap.String("item_id", itemID.String()),
		zap.String("contractor_id", contractorID.String()))

	return resolved, nil
}

func (s *reviewService) Merge(ctx context.Context, orgID, itemID uuid.UUID, targetID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	var resolved *models.ReviewQueueItem

	err := s.inTransaction(ctx, func(txCtx context.Context) error {
		item, provisional, err := s.loadPendingItem(txCtx, itemID)
		if err != nil {
			return err
		}

		resolvedTarget := targetID
		if resolvedTarget == nil {
			resolvedTarget = item.SuggestedMatchID
		}
		if resolvedTarget == nil {
			return fmt.Errorf("%w: no merge target given and analysis suggested none", apperrors.ErrValidation)
		}
		if *resolvedTarget == provisional.ID {
			return fmt.Errorf("%w: cannot merge a contractor into itself", apperrors.ErrValidation)
		}

		target, err := s.contractorRepo.GetByID(txCtx, *resolvedTarget)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("%w: merge target %s", apperrors.ErrNotFound, resolvedTarget)
		}
		if !target.Approved {
			return fmt.Errorf("%w: merge target must be an approved contractor", apperrors.ErrValidation)
		}

		// Verify no third contractor owns any alias about to move.
		aliases, err := s.contractorRepo.ListAliases(txCtx, provisional.ID)
		if err != nil {
			return err
		}
		aliasStrings := make([]string, len(aliases))
		for i, a := range aliases {
			aliasStrings[i] = a.Alias
		}
		owners, err := s.contractorRepo.AliasOwners(txCtx, aliasStrings)
		if err != nil {
			return err
		}
		for alias, owner := range owners {
			if owner != provisional.ID && owner != target.ID {
				return fmt.Errorf("%w: %q belongs to contractor %s", apperrors.ErrAliasConflict, alias, owner)
			}
		}

		moved, err := s.referenceRepo.Reassign(txCtx, provisional.ID, target.ID)
		if err != nil {
			return err
		}

		movedAliases, err := s.contractorRepo.MoveAliases(txCtx, provisional.ID, target.ID)
		if err != nil {
			return err
		}

		if err := s.contractorRepo.Delete(txCtx, provisional.ID); err != nil {
			return err
		}

		note := fmt.Sprintf("Merged with %q", target.Name)
		if err := s.queueRepo.MarkResolved(txCtx, item.ID, models.StatusMerged, reviewerID, note); err != nil {
			return err
		}

		s.logger.Info("Submission merged",
			zap.String("item_id", itemID.String()),
			zap.String("target_id", target.ID.String()),
			zap.Int64("references_moved", moved),
			zap.Int64("aliases_moved", movedAliases))

		resolved, err = s.queueRepo.GetByID(txCtx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.roster.Invalidate(ctx, orgID)
	return resolved, nil
}

func (s *reviewService) Delete(ctx context.Context, orgID, itemID uuid.UUID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	var resolved *models.ReviewQueueItem

	err := s.inTransaction(ctx, func(txCtx context.Context) error {
		item, provisional, err := s.loadPendingItem(txCtx, itemID)
		if err != nil {
			return err
		}

		severed, err := s.referenceRepo.Sever(txCtx, provisional.ID)
		if err != nil {
			return err
		}

		if err := s.contractorRepo.Delete(txCtx, provisional.ID); err != nil {
			return err
		}

		if err := s.queueRepo.MarkResolved(txCtx, item.ID, models.StatusDeleted, reviewerID, "Deleted as invalid submission"); err != nil {
			return err
		}

		s.logger.Info("Submission deleted",
			zap.String("item_id", itemID.String()),
			zap.Int64("references_severed", severed))

		resolved, err = s.queueRepo.GetByID(txCtx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.roster.Invalidate(ctx, orgID)
	return resolved, nil
}

// loadPendingItem fetches the item and its provisional contractor, enforcing
// the pending-only rule every transition shares.
func (s *reviewService) loadPendingItem(ctx context.Context, itemID uuid.UUID) (*models.ReviewQueueItem, *models.Contractor, error) {
	item, err := s.queueRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, fmt.Errorf("%w: review queue item %s", apperrors.ErrNotFound, itemID)
	}
	if !item.IsPending() {
		return nil, nil, fmt.Errorf("%w: item %s is %s", apperrors.ErrInvalidState, itemID, item.Status)
	}
	if item.ProvisionalContractorID == nil {
		return nil, nil, fmt.Errorf("%w: item %s has no provisional contractor", apperrors.ErrInvalidState, itemID)
	}

	provisional, err := s.contractorRepo.GetByID(ctx, *item.ProvisionalContractorID)
	if err != nil {
		return nil, nil, err
	}
	if provisional == nil {
		return nil, nil, fmt.Errorf("%w: provisional contractor %s", apperrors.ErrNotFound, *item.ProvisionalContractorID)
	}

	return item, provisional, nil
}

// inTransaction runs fn against a transaction layered over the org scope in
// ctx. Any error rolls the whole transition back.
func (s *reviewService) inTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(database.SetOrgScope(ctx, database.NewScope(tx))); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
