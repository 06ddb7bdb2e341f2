package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
)

// ReviewQueueRepository provides data access for the submission review queue.
// Queue items are append-and-mark: resolution updates status fields, nothing
// is ever deleted.
type ReviewQueueRepository interface {
	Create(ctx context.Context, item *models.ReviewQueueItem) error
	GetByID(ctx context.Context, itemID uuid.UUID) (*models.ReviewQueueItem, error)
	ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error)
	CountByStatus(ctx context.Context) (*models.ReviewQueueStats, error)
	MarkResolved(ctx context.Context, itemID uuid.UUID, status string, resolvedBy *uuid.UUID, note string) error
}

type reviewQueueRepository struct{}

// NewReviewQueueRepository creates a new ReviewQueueRepository.
func NewReviewQueueRepository() ReviewQueueRepository {
	return &reviewQueueRepository{}
}

var _ ReviewQueueRepository = (*reviewQueueRepository)(nil)

func (r *reviewQueueRepository) Create(ctx context.Context, item *models.ReviewQueueItem) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	if item.Warnings == nil {
		item.Warnings = []string{}
	}
	item.SubmittedAt = time.Now()

	query := `
		INSERT INTO engine_review_queue (
			id, org_id, submitted_name, submitted_by, provisional_contractor_id,
			recommendation, confidence, suggested_match_id, reasoning, warnings,
			city, region, origin_project_id, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := scope.Conn.Exec(ctx, query,
		item.ID, item.OrgID, item.SubmittedName, item.SubmittedBy, item.ProvisionalContractorID,
		item.Recommendation, item.Confidence, item.SuggestedMatchID, item.Reasoning, item.Warnings,
		item.City, item.Region, item.OriginProjectID, item.Status, item.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review queue item: %w", err)
	}

	return nil
}

func (r *reviewQueueRepository) GetByID(ctx context.Context, itemID uuid.UUID) (*models.ReviewQueueItem, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := selectReviewItem + ` WHERE id = $1`

	item, err := scanReviewItem(scope.Conn.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review queue item: %w", err)
	}

	return item, nil
}

func (r *reviewQueueRepository) ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := selectReviewItem + `
		WHERE status = $1
		ORDER BY submitted_at DESC`

	rows, err := scope.Conn.Query(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer rows.Close()

	var items []*models.ReviewQueueItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review queue item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review queue items: %w", err)
	}

	return items, nil
}

func (r *reviewQueueRepository) CountByStatus(ctx context.Context) (*models.ReviewQueueStats, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'merged'),
			COUNT(*) FILTER (WHERE status = 'deleted')
		FROM engine_review_queue`

	var stats models.ReviewQueueStats
	err := scope.Conn.QueryRow(ctx, query).Scan(&stats.Pending, &stats.Approved, &stats.Merged, &stats.Deleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count review queue items: %w", err)
	}

	return &stats, nil
}

func (r *reviewQueueRepository) MarkResolved(ctx context.Context, itemID uuid.UUID, status string, resolvedBy *uuid.UUID, note string) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE engine_review_queue
		SET status = $2, resolved_by = $3, resolved_at = NOW(), resolution_note = $4
		WHERE id = $1 AND status = 'pending'`

	tag, err := scope.Conn.Exec(ctx, query, itemID, status, resolvedBy, note)
	if err != nil {
		return fmt.Errorf("failed to resolve review queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review queue item %s is not pending", itemID)
	}

	return nil
}

// ============================================================================
// Scan Helpers
// ============================================================================

const selectReviewItem = `
	SELECT id, org_id, submitted_name, submitted_by, provisional_contractor_id,
	       recommendation, confidence, suggested_match_id, reasoning, warnings,
	       city, region, origin_project_id, status,
	       resolved_by, resolved_at, resolution_note, submitted_at
	FROM engine_review_queue`

func scanReviewItem(row pgx.Row) (*models.ReviewQueueItem, error) {
	var item models.ReviewQueueItem
	err := row.Scan(
		&item.ID, &item.OrgID, &item.SubmittedName, &item.SubmittedBy, &item.ProvisionalContractorID,
		&item.Recommendation, &item.Confidence, &item.SuggestedMatchID, &item.Reasoning, &item.Warnings,
		&item.City, &item.Region, &item.OriginProjectID, &item.Status,
		&item.ResolvedBy, &item.ResolvedAt, &item.ResolutionNote, &item.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
