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

// ApprovedContractor pairs a roster contractor with its known aliases.
type ApprovedContractor struct {
	Contractor *models.Contractor
	Aliases    []string
}

// ContractorRepository provides data access for contractors and their aliases.
type ContractorRepository interface {
	// Contractor operations
	Create(ctx context.Context, contractor *models.Contractor) error
	GetByID(ctx context.Context, contractorID uuid.UUID) (*models.Contractor, error)
	SearchByName(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error)
	FindByAlias(ctx context.Context, alias string, limit int) ([]*models.Contractor, error)
	GetByAlias(ctx context.Context, alias string) (*models.Contractor, error)
	ListApproved(ctx context.Context, limit int) ([]*ApprovedContractor, error)
	Approve(ctx context.Context, contractorID uuid.UUID, name string, approvedBy *uuid.UUID) error
	Delete(ctx context.Context, contractorID uuid.UUID) error

	// Alias operations
	AddAlias(ctx context.Context, alias *models.ContractorAlias) error
	ListAliases(ctx context.Context, contractorID uuid.UUID) ([]*models.ContractorAlias, error)
	AliasOwners(ctx context.Context, aliases []string) (map[string]uuid.UUID, error)
	MoveAliases(ctx context.Context, fromID, toID uuid.UUID) (int64, error)
}

type contractorRepository struct{}

// NewContractorRepository creates a new ContractorRepository.
func NewContractorRepository() ContractorRepository {
	return &contractorRepository{}
}

var _ ContractorRepository = (*contractorRepository)(nil)

// ============================================================================
// Contractor Operations
// ============================================================================

func (r *contractorRepository) Create(ctx context.Context, contractor *models.Contractor) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	now := time.Now()
	contractor.CreatedAt = now
	contractor.UpdatedAt = now

	if contractor.ID == uuid.Nil {
		contractor.ID = uuid.New()
	}
	if contractor.RiskTags == nil {
		contractor.RiskTags = []string{}
	}

	query := `
		INSERT INTO engine_contractors (
			id, org_id, name, city, region, risk_tags, star_rating,
			approved, created_by, approved_by, approved_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := scope.Conn.Exec(ctx, query,
		contractor.ID, contractor.OrgID, contractor.Name, contractor.City, contractor.Region,
		contractor.RiskTags, contractor.StarRating,
		contractor.Approved, contractor.CreatedBy, contractor.ApprovedBy, contractor.ApprovedAt,
		contractor.CreatedAt, contractor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contractor: %w", err)
	}

	return nil
}

func (r *contractorRepository) GetByID(ctx context.Context, contractorID uuid.UUID) (*models.Contractor, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := selectContractor + ` WHERE id = $1`

	contractor, err := scanContractor(scope.Conn.QueryRow(ctx, query, contractorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}

	return contractor, nil
}

func (r *contractorRepository) SearchByName(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	sql := selectContractor + `
		WHERE (approved OR $3) AND name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, sql, query, limit, includeUnapproved)
	if err != nil {
		return nil, fmt.Errorf("failed to search contractors: %w", err)
	}
	defer rows.Close()

	return collectContractors(rows)
}

func (r *contractorRepository) FindByAlias(ctx context.Context, alias string, limit int) ([]*models.Contractor, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	sql := `
		SELECT DISTINCT ON (c.id)
		       c.id, c.org_id, c.name, c.city, c.region, c.risk_tags, c.star_rating,
		       c.approved, c.created_by, c.approved_by, c.approved_at,
		       c.created_at, c.updated_at
		FROM engine_contractors c
		JOIN engine_contractor_aliases a ON a.contractor_id = c.id
		WHERE c.approved AND a.alias = $1
		ORDER BY c.id
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, sql, alias, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search aliases: %w", err)
	}
	defer rows.Close()

	return collectContractors(rows)
}

func (r *contractorRepository) GetByAlias(ctx context.Context, alias string) (*models.Contractor, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	sql := `
		SELECT c.id, c.org_id, c.name, c.city, c.region, c.risk_tags, c.star_rating,
		       c.approved, c.created_by, c.approved_by, c.approved_at,
		       c.created_at, c.updated_at
		FROM engine_contractors c
		JOIN engine_contractor_aliases a ON a.contractor_id = c.id
		WHERE a.alias = $1`

	contractor, err := scanContractor(scope.Conn.QueryRow(ctx, sql, alias))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contractor by alias: %w", err)
	}

	return contractor, nil
}

func (r *contractorRepository) ListApproved(ctx context.Context, limit int) ([]*ApprovedContractor, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	sql := `
		SELECT c.id, c.org_id, c.name, c.city, c.region, c.risk_tags, c.star_rating,
		       c.approved, c.created_by, c.approved_by, c.approved_at,
		       c.created_at, c.updated_at,
		       COALESCE(array_agg(a.alias) FILTER (WHERE a.alias IS NOT NULL), '{}')
		FROM engine_contractors c
		LEFT JOIN engine_contractor_aliases a ON a.contractor_id = c.id
		WHERE c.approved
		GROUP BY c.id
		ORDER BY c.name
		LIMIT $1`

	rows, err := scope.Conn.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved contractors: %w", err)
	}
	defer rows.Close()

	var roster []*ApprovedContractor
	for rows.Next() {
		var c models.Contractor
		var aliases []string
		err := rows.Scan(
			&c.ID, &c.OrgID, &c.Name, &c.City, &c.Region, &c.RiskTags, &c.StarRating,
			&c.Approved, &c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
			&c.CreatedAt, &c.UpdatedAt,
			&aliases,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approved contractor: %w", err)
		}
		roster = append(roster, &ApprovedContractor{Contractor: &c, Aliases: aliases})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approved contractors: %w", err)
	}

	return roster, nil
}

func (r *contractorRepository) Approve(ctx context.Context, contractorID uuid.UUID, name string, approvedBy *uuid.UUID) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE engine_contractors
		SET name = $2, approved = TRUE, approved_by = $3, approved_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	tag, err := scope.Conn.Exec(ctx, query, contractorID, name, approvedBy)
	if err != nil {
		return fmt.Errorf("failed to approve contractor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contractor %s not found", contractorID)
	}

	return nil
}

func (r *contractorRepository) Delete(ctx context.Context, contractorID uuid.UUID) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	// Aliases cascade.
	_, err := scope.Conn.Exec(ctx, `DELETE FROM engine_contractors WHERE id = $1`, contractorID)
	if err != nil {
		return fmt.Errorf("failed to delete contractor: %w", err)
	}

	return nil
}

// ============================================================================
// Alias Operations
// ============================================================================

func (r *contractorRepository) AddAlias(ctx context.Context, alias *models.ContractorAlias) error {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return fmt.Errorf("no org scope in context")
	}

	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	alias.CreatedAt = time.Now()

	query := `
		INSERT INTO engine_contractor_aliases (id, org_id, contractor_id, alias, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, alias) DO NOTHING`

	_, err := scope.Conn.Exec(ctx, query,
		alias.ID, alias.OrgID, alias.ContractorID, alias.Alias, alias.Source, alias.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add alias: %w", err)
	}

	return nil
}

func (r *contractorRepository) ListAliases(ctx context.Context, contractorID uuid.UUID) ([]*models.ContractorAlias, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := `
		SELECT id, org_id, contractor_id, alias, source, created_at
		FROM engine_contractor_aliases
		WHERE contractor_id = $1
		ORDER BY alias`

	rows, err := scope.Conn.Query(ctx, query, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*models.ContractorAlias
	for rows.Next() {
		var a models.ContractorAlias
		if err := rows.Scan(&a.ID, &a.OrgID, &a.ContractorID, &a.Alias, &a.Source, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aliases: %w", err)
	}

	return aliases, nil
}

func (r *contractorRepository) AliasOwners(ctx context.Context, aliases []string) (map[string]uuid.UUID, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no org scope in context")
	}

	query := `
		SELECT alias, contractor_id
		FROM engine_contractor_aliases
		WHERE alias = ANY($1)`

	rows, err := scope.Conn.Query(ctx, query, aliases)
	if err != nil {
		return nil, fmt.Errorf("failed to query alias owners: %w", err)
	}
	defer rows.Close()

	owners := make(map[string]uuid.UUID)
	for rows.Next() {
		var alias string
		var owner uuid.UUID
		if err := rows.Scan(&alias, &owner); err != nil {
			return nil, fmt.Errorf("failed to scan alias owner: %w", err)
		}
		owners[alias] = owner
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alias owners: %w", err)
	}

	return owners, nil
}

func (r *contractorRepository) MoveAliases(ctx context.Context, fromID, toID uuid.UUID) (int64, error) {
	scope, ok := database.GetOrgScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no org scope in context")
	}

	query := `
		UPDATE engine_contractor_aliases
		SET contractor_id = $2, source = $3
		WHERE contractor_id = $1`

	tag, err := scope.Conn.Exec(ctx, query, fromID, toID, models.AliasSourceMerge)
	if err != nil {
		return 0, fmt.Errorf("failed to move aliases: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ============================================================================
// Scan Helpers
// ============================================================================

const selectContractor = `
	SELECT id, org_id, name, city, region, risk_tags, star_rating,
	       approved, created_by, approved_by, approved_at,
	       created_at, updated_at
	FROM engine_contractors`

func scanContractor(row pgx.Row) (*models.Contractor, error) {
	var c models.Contractor
	err := row.Scan(
		&c.ID, &c.OrgID, &c.Name, &c.City, &c.Region, &c.RiskTags, &c.StarRating,
		&c.Approved, &c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectContractors(rows pgx.Rows) ([]*models.Contractor, error) {
	var contractors []*models.Contractor
	for rows.Next() {
		contractor, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contractor: %w", err)
		}
		contractors = append(contractors, contractor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contractors: %w", err)
	}

	return contractors, nil
}
