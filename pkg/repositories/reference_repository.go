package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
)

// ReferenceRepository provides data access for project-to-contractor
// references. Merges repoint them wholesale; deletes sever them.
type ReferenceRepository interface {
	Attach(ctx context.Context, ref *models.ProjectContractorRef) error
	Reassign(ctx context.Context, fromContractorID, toContractorID uuid.UUID) (int64, error)
	Sever(ctx context.Context, contractorID uuid.UUID) (int64, error)
	CountByContractor(ctx context.Context, contractorID uuid.UUID) (int64, error)
}

type referenceRepository struct{}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository() ReferenceRepository {
	return &referenceRepository{}
}

var _ ReferenceRepository = (*referenceRepository)(nil)

func (r *referenceRepository) Attach(ctx context.Context, ref *models.ProjectContractorRef) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	if ref.ID == uuid.Nil {
		ref.ID = uuid.New()
	}
	ref.CreatedAt = time.Now()

	query := `
		INSERT INTO engine_project_contractors (id, org_id, project_id, contractor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := scope.Conn.Exec(ctx, query, ref.ID, ref.OrgID, ref.ProjectID, ref.ContractorID, ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to attach project reference: %w", err)
	}

	return nil
}

func (r *referenceRepository) Reassign(ctx context.Context, fromContractorID, toContractorID uuid.UUID) (int64, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE engine_project_contractors
		SET contractor_id = $2
		WHERE contractor_id = $1`

	tag, err := scope.Conn.Exec(ctx, query, fromContractorID, toContractorID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign project references: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *referenceRepository) Sever(ctx context.Context, contractorID uuid.UUID) (int64, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE engine_project_contractors
		SET contractor_id = NULL
		WHERE contractor_id = $1`

	tag, err := scope.Conn.Exec(ctx, query, contractorID)
	if err != nil {
		return 0, fmt.Errorf("failed to sever project references: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *referenceRepository) CountByContractor(ctx context.Context, contractorID uuid.UUID) (int64, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no org scope in context")
	}

	var count int64
	err := scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM engine_project_contractors WHERE contractor_id = $1`,
		contractorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count project references: %w", err)
	}

	return count, nil
}
