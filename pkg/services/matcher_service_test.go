package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/oracle"
)

func TestMatcherService_Search(t *testing.T) {
	orgID := uuid.New()
	ctx := context.Background()

	turner := &models.Contractor{ID: uuid.New(), OrgID: orgID, Name: "Turner Construction", Approved: true}

	t.Run("name hit skips the oracle", func(t *testing.T) {
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				assert.Equal(t, "turner", query)
				assert.Equal(t, nameSearchLimit, limit)
				assert.False(t, includeUnapproved)
				return []*models.Contractor{turner}, nil
			},
		}
		mockOracle := oracle.NewMockOracle()
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, mockOracle, zap.NewNop())

		result, err := svc.Search(ctx, orgID, "Turner", false)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, MatchSourceName, result.Matches[0].Source)
		assert.Equal(t, 1.0, result.Matches[0].Score)
		assert.False(t, result.ExactMatch)
		assert.False(t, result.IsLikelyNew)
		assert.Equal(t, 0, mockOracle.FindMatchesCalls)
	})

	t.Run("unapproved flag reaches the repository", func(t *testing.T) {
		provisional := &models.Contractor{ID: uuid.New(), OrgID: orgID, Name: "Smith Builders LLC"}
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				assert.True(t, includeUnapproved)
				return []*models.Contractor{provisional}, nil
			},
		}
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, oracle.NewMockOracle(), zap.NewNop())

		result, err := svc.Search(ctx, orgID, "smith builders llc", true)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, provisional.ID, result.Matches[0].ContractorID)
		assert.True(t, result.ExactMatch, "full-name equality counts as exact")
	})

	t.Run("stored alias marks the result exact", func(t *testing.T) {
		contractorRepo := &mockContractorRepo{
			FindByAliasFunc: func(ctx context.Context, alias string, limit int) ([]*models.Contractor, error) {
				assert.Equal(t, "turner const", alias)
				assert.Equal(t, aliasSearchLimit, limit)
				return []*models.Contractor{turner}, nil
			},
		}
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, oracle.NewMockOracle(), zap.NewNop())

		result, err := svc.Search(ctx, orgID, "Turner Const", false)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, MatchSourceAlias, result.Matches[0].Source)
		assert.True(t, result.ExactMatch)
	})

	t.Run("alias owner already found by name is not re-added", func(t *testing.T) {
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				return []*models.Contractor{turner}, nil
			},
			FindByAliasFunc: func(ctx context.Context, alias string, limit int) ([]*models.Contractor, error) {
				return []*models.Contractor{turner}, nil
			},
		}
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, oracle.NewMockOracle(), zap.NewNop())

		result, err := svc.Search(ctx, orgID, "turner construction co", false)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, MatchSourceName, result.Matches[0].Source)
		assert.True(t, result.ExactMatch, "the alias hit still counts as exact")
	})

	t.Run("surfaced provisional's alias counts as exact", func(t *testing.T) {
		provisional := &models.Contractor{ID: uuid.New(), OrgID: orgID, Name: "Turner Construction Co LLC"}
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				assert.True(t, includeUnapproved)
				return []*models.Contractor{provisional}, nil
			},
			GetByAliasFunc: func(ctx context.Context, alias string) (*models.Contractor, error) {
				assert.Equal(t, "turner const", alias)
				return provisional, nil
			},
		}
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, oracle.NewMockOracle(), zap.NewNop())

		result, err := svc.Search(ctx, orgID, "Turner Const", true)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.True(t, result.ExactMatch)
	})

	t.Run("alias of a hidden contractor does not flag exact", func(t *testing.T) {
		hidden := &models.Contractor{ID: uuid.New(), OrgID: orgID, Name: "Turner Constructors Inc"}
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				return []*models.Contractor{turner}, nil
			},
			GetByAliasFunc: func(ctx context.Context, alias string) (*models.Contractor, error) {
				return hidden, nil
			},
		}
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, oracle.NewMockOracle(), zap.NewNop())

		result, err := svc.Search(ctx, orgID, "Turner Const", false)
		require.NoError(t, err)
		assert.False(t, result.ExactMatch, "exactness is judged against returned matches only")
	})

	t.Run("empty tiers consult the oracle", func(t *testing.T) {
		roster := &mockRosterService{
			RosterFunc: func(ctx context.Context, id uuid.UUID) ([]oracle.RosterEntry, error) {
				return []oracle.RosterEntry{{ID: turner.ID, Name: turner.Name, City: "Denver", Region: "CO"}}, nil
			},
		}
		mockOracle := oracle.NewMockOracle()
		mockOracle.FindMatchesFunc = func(ctx context.Context, req oracle.MatchRequest) (*oracle.MatchResponse, error) {
			assert.Equal(t, "tuner constr", req.Query)
			return &oracle.MatchResponse{
				Matches:       []oracle.Match{{ContractorID: turner.ID, Name: turner.Name, Score: 0.85, Reasoning: "likely typo"}},
				SuggestedName: "Tuner Construction",
			}, nil
		}
		svc := NewMatcherService(&mockContractorRepo{}, roster, mockOracle, zap.NewNop())

		result, err := svc.Search(ctx, orgID, "tuner constr", false)
		require.NoError(t, err)
		require.Len(t, result.Matches, 1)
		assert.Equal(t, MatchSourceFuzzy, result.Matches[0].Source)
		assert.Equal(t, 0.85, result.Matches[0].Score)
		require.NotNil(t, result.Matches[0].City)
		assert.Equal(t, "Denver", *result.Matches[0].City)
	})

	t.Run("oracle outage degrades to likely new", func(t *testing.T) {
		mockOracle := oracle.NewMockOracle()
		mockOracle.FindMatchesFunc = func(ctx context.Context, req oracle.MatchRequest) (*oracle.MatchResponse, error) {
			return nil, fmt.Errorf("%w: request timeout", apperrors.ErrOracleDegraded)
		}
		svc := NewMatcherService(&mockContractorRepo{}, &mockRosterService{}, mockOracle, zap.NewNop())

		result, err := svc.Search(ctx, orgID, "brand new builders llc", false)
		require.NoError(t, err)
		assert.Empty(t, result.Matches)
		assert.True(t, result.IsLikelyNew)
		assert.Equal(t, "Brand New Builders LLC", result.SuggestedName)
	})

	t.Run("empty roster still yields a suggestion", func(t *testing.T) {
		mockOracle := oracle.NewMockOracle()
		mockOracle.FindMatchesFunc = func(ctx context.Context, req oracle.MatchRequest) (*oracle.MatchResponse, error) {
			assert.Empty(t, req.Roster)
			return &oracle.MatchResponse{IsLikelyNew: true, SuggestedName: "Acme Construction"}, nil
		}
		svc := NewMatcherService(&mockContractorRepo{}, &mockRosterService{}, mockOracle, zap.NewNop())

		result, err := svc.Search(ctx, orgID, "acme const", false)
		require.NoError(t, err)
		assert.True(t, result.IsLikelyNew)
		assert.Equal(t, "Acme Construction", result.SuggestedName)
	})

	t.Run("short query skips every tier", func(t *testing.T) {
		contractorRepo := &mockContractorRepo{
			SearchByNameFunc: func(ctx context.Context, query string, limit int, includeUnapproved bool) ([]*models.Contractor, error) {
				t.Fatal("tier 1 must not run for a short query")
				return nil, nil
			},
		}
		mockOracle := oracle.NewMockOracle()
		svc := NewMatcherService(contractorRepo, &mockRosterService{}, mockOracle, zap.NewNop())

		for _, q := range []string{"", "  ", "a", " x "} {
			result, err := svc.Search(ctx, orgID, q, false)
			require.NoError(t, err)
			assert.Empty(t, result.Matches)
			assert.False(t, result.IsLikelyNew)
		}
		assert.Equal(t, 0, mockOracle.FindMatchesCalls)
	})
}
