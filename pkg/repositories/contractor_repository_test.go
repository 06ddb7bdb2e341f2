package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidintell-inc/bidiq-engine/pkg/database"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
)

func newMockScope(t *testing.T) (pgxmock.PgxConnIface, context.Context) {
	t.Helper()

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close(context.Background()) })

	ctx := database.SetOrgScope(context.Background(), database.NewScope(mock))
	return mock, ctx
}

func contractorColumns() []string {
	return []string{
		"id", "org_id", "name", "city", "region", "risk_tags", "star_rating",
		"approved", "created_by", "approved_by", "approved_at",
		"created_at", "updated_at",
	}
}

func contractorRow(id, orgID uuid.UUID, name string, approved bool) []any {
	now := time.Now()
	return []any{
		id, orgID, name, nil, nil, []string{}, 0,
		approved, nil, nil, nil,
		now, now,
	}
}

func TestContractorRepository_GetByID(t *testing.T) {
	repo := NewContractorRepository()
	orgID := uuid.New()
	contractorID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM engine_contractors")).
			WithArgs(contractorID).
			WillReturnRows(pgxmock.NewRows(contractorColumns()).
				AddRow(contractorRow(contractorID, orgID, "Turner Construction", true)...))

		contractor, err := repo.GetByID(ctx, contractorID)
		require.NoError(t, err)
		require.NotNil(t, contractor)
		assert.Equal(t, "Turner Construction", contractor.Name)
		assert.True(t, contractor.Approved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing returns nil without error", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM engine_contractors")).
			WithArgs(contractorID).
			WillReturnRows(pgxmock.NewRows(contractorColumns()))

		contractor, err := repo.GetByID(ctx, contractorID)
		require.NoError(t, err)
		assert.Nil(t, contractor)
	})

	t.Run("no org scope", func(t *testing.T) {
		_, err := repo.GetByID(context.Background(), contractorID)
		assert.ErrorContains(t, err, "no org scope")
	})
}

func TestContractorRepository_SearchByName(t *testing.T) {
	repo := NewContractorRepository()
	orgID := uuid.New()

	mock, ctx := newMockScope(t)
	mock.ExpectQuery(regexp.QuoteMeta("name ILIKE '%' || $1 || '%'")).
		WithArgs("turner", 10, false).
		WillReturnRows(pgxmock.NewRows(contractorColumns()).
			AddRow(contractorRow(uuid.New(), orgID, "Turner Construction", true)...).
			AddRow(contractorRow(uuid.New(), orgID, "Turner Painting LLC", true)...))

	results, err := repo.SearchByName(ctx, "turner", 10, false)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractorRepository_AddAlias(t *testing.T) {
	repo := NewContractorRepository()
	mock, ctx := newMockScope(t)

	alias := &models.ContractorAlias{
		OrgID:        uuid.New(),
		ContractorID: uuid.New(),
		Alias:        "turner const",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO engine_contractor_aliases")).
		WithArgs(pgxmock.AnyArg(), alias.OrgID, alias.ContractorID, alias.Alias, alias.Source, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.AddAlias(ctx, alias))
	assert.NotEqual(t, uuid.Nil, alias.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractorRepository_AliasOwners(t *testing.T) {
	repo := NewContractorRepository()
	mock, ctx := newMockScope(t)

	ownerID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT alias, contractor_id")).
		WithArgs([]string{"turner const", "unclaimed"}).
		WillReturnRows(pgxmock.NewRows([]string{"alias", "contractor_id"}).
			AddRow("turner const", ownerID))

	owners, err := repo.AliasOwners(ctx, []string{"turner const", "unclaimed"})
	require.NoError(t, err)
	assert.Equal(t, ownerID, owners["turner const"])
	_, claimed := owners["unclaimed"]
	assert.False(t, claimed)
}

func TestContractorRepository_MoveAliases(t *testing.T) {
	repo := NewContractorRepository()
	mock, ctx := newMockScope(t)

	fromID, toID := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_contractor_aliases")).
		WithArgs(fromID, toID, models.AliasSourceMerge).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	moved, err := repo.MoveAliases(ctx, fromID, toID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
}

func TestContractorRepository_Approve(t *testing.T) {
	repo := NewContractorRepository()
	contractorID := uuid.New()

	t.Run("updates the row", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_contractors")).
			WithArgs(contractorID, "Turner Construction", (*uuid.UUID)(nil)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Approve(ctx, contractorID, "Turner Construction", nil))
	})

	t.Run("missing contractor errors", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_contractors")).
			WithArgs(contractorID, "Turner Construction", (*uuid.UUID)(nil)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorContains(t, repo.Approve(ctx, contractorID, "Turner Construction", nil), "not found")
	})
}

func TestReviewQueueRepository_MarkResolved(t *testing.T) {
	repo := NewReviewQueueRepository()
	itemID := uuid.New()

	t.Run("pending item resolves", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_review_queue")).
			WithArgs(itemID, models.StatusMerged, (*uuid.UUID)(nil), "Merged with Turner Construction").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.MarkResolved(ctx, itemID, models.StatusMerged, nil, "Merged with Turner Construction"))
	})

	t.Run("already resolved item errors", func(t *testing.T) {
		mock, ctx := newMockScope(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_review_queue")).
			WithArgs(itemID, models.StatusApproved, (*uuid.UUID)(nil), "Approved as new contractor").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorContains(t, repo.MarkResolved(ctx, itemID, models.StatusApproved, nil, "Approved as new contractor"), "not pending")
	})
}

func TestReviewQueueRepository_CountByStatus(t *testing.T) {
	repo := NewReviewQueueRepository()
	mock, ctx := newMockScope(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM engine_review_queue")).
		WillReturnRows(pgxmock.NewRows([]string{"pending", "approved", "merged", "deleted"}).
			AddRow(4, 10, 3, 1))

	stats, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 10, stats.Approved)
	assert.Equal(t, 3, stats.Merged)
	assert.Equal(t, 1, stats.Deleted)
}

func TestReferenceRepository_Reassign(t *testing.T) {
	repo := NewReferenceRepository()
	mock, ctx := newMockScope(t)

	fromID, toID := uuid.New(), uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE engine_project_contractors")).
		WithArgs(fromID, toID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 7))

	moved, err := repo.Reassign(ctx, fromID, toID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), moved)
}
