package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/apperrors"
	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/services"
)

// mockReviewService is a configurable ReviewService mock.
type mockReviewService struct {
	ListPendingFunc func(ctx context.Context) ([]*models.ReviewQueueItem, error)
	StatsFunc       func(ctx context.Context) (*models.ReviewQueueStats, error)
	ApproveFunc     func(ctx context.Context, orgID, itemID uuid.UUID, formattedName *string, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)
	MergeFunc       func(ctx context.Context, orgID, itemID uuid.UUID, targetID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)
	DeleteFunc      func(ctx context.Context, orgID, itemID uuid.UUID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error)
}

func (m *mockReviewService) ListPending(ctx context.Context) ([]*models.ReviewQueueItem, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockReviewService) Stats(ctx context.Context) (*models.ReviewQueueStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.ReviewQueueStats{}, nil
}

func (m *mockReviewService) Approve(ctx context.Context, orgID, itemID uuid.UUID, formattedName *string, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, orgID, itemID, formattedName, reviewerID)
	}
	return &models.ReviewQueueItem{ID: itemID, Status: models.StatusApproved}, nil
}

func (m *mockReviewService) Merge(ctx context.Context, orgID, itemID uuid.UUID, targetID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, orgID, itemID, targetID, reviewerID)
	}
	return &models.ReviewQueueItem{ID: itemID, Status: models.StatusMerged}, nil
}

func (m *mockReviewService) Delete(ctx context.Context, orgID, itemID uuid.UUID, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, orgID, itemID, reviewerID)
	}
	return &models.ReviewQueueItem{ID: itemID, Status: models.StatusDeleted}, nil
}

var _ services.ReviewService = (*mockReviewService)(nil)

func reviewRequest(t *testing.T, method, path string, body []byte, orgID uuid.UUID, itemID string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.SetPathValue("oid", orgID.String())
	if itemID != "" {
		req.SetPathValue("item", itemID)
	}
	return req
}

func TestReviewHandler_List(t *testing.T) {
	orgID := uuid.New()

	t.Run("returns pending items", func(t *testing.T) {
		svc := &mockReviewService{
			ListPendingFunc: func(ctx context.Context) ([]*models.ReviewQueueItem, error) {
				return []*models.ReviewQueueItem{
					{ID: uuid.New(), Status: models.StatusPending, SubmittedName: "Turner Const"},
				}, nil
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		rec := httptest.NewRecorder()
		h.List(rec, reviewRequest(t, http.MethodGet, "/api/orgs/x/review-queue", nil, orgID, ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Turner Const")
		assert.Contains(t, rec.Body.String(), `"total":1`)
	})

	t.Run("empty queue renders an empty array", func(t *testing.T) {
		h := NewReviewHandler(&mockReviewService{}, zap.NewNop())

		rec := httptest.NewRecorder()
		h.List(rec, reviewRequest(t, http.MethodGet, "/api/orgs/x/review-queue", nil, orgID, ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"items":[]`)
	})
}

func TestReviewHandler_Approve(t *testing.T) {
	orgID := uuid.New()
	itemID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &mockReviewService{
			ApproveFunc: func(ctx context.Context, gotOrg, gotItem uuid.UUID, formattedName *string, reviewerID *uuid.UUID) (*models.ReviewQueueItem, error) {
				assert.Equal(t, orgID, gotOrg)
				assert.Equal(t, itemID, gotItem)
				assert.Nil(t, formattedName)
				note := `Approved as new contractor "Turner Construction"`
				return &models.ReviewQueueItem{ID: gotItem, Status: models.StatusApproved, ResolutionNote: &note}, nil
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Approve(rec, reviewRequest(t, http.MethodPost, "/approve", nil, orgID, itemID.String()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"approved"`)
		assert.Contains(t, rec.Body.String(), "Turner Construction")
	})

	t.Run("already resolved maps to 409", func(t *testing.T) {
		svc := &mockReviewService{
			ApproveFunc: func(ctx context.Context, _, _ uuid.UUID, _ *string, _ *uuid.UUID) (*models.ReviewQueueItem, error) {
				return nil, fmt.Errorf("%w: item is merged", apperrors.ErrInvalidState)
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Approve(rec, reviewRequest(t, http.MethodPost, "/approve", nil, orgID, itemID.String()))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_state")
	})

	t.Run("bad item id maps to 400", func(t *testing.T) {
		h := NewReviewHandler(&mockReviewService{}, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Approve(rec, reviewRequest(t, http.MethodPost, "/approve", nil, orgID, "not-a-uuid"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReviewHandler_Merge(t *testing.T) {
	orgID := uuid.New()
	itemID := uuid.New()
	targetID := uuid.New()

	t.Run("body target is forwarded", func(t *testing.T) {
		var gotTarget *uuid.UUID
		svc := &mockReviewService{
			MergeFunc: func(ctx context.Context, _, _ uuid.UUID, target, _ *uuid.UUID) (*models.ReviewQueueItem, error) {
				gotTarget = target
				return &models.ReviewQueueItem{ID: itemID, Status: models.StatusMerged}, nil
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		body := []byte(`{"target_id":"` + targetID.String() + `"}`)
		rec := httptest.NewRecorder()
		h.Merge(rec, reviewRequest(t, http.MethodPost, "/merge", body, orgID, itemID.String()))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotTarget)
		assert.Equal(t, targetID, *gotTarget)
	})

	t.Run("alias conflict maps to 409", func(t *testing.T) {
		svc := &mockReviewService{
			MergeFunc: func(ctx context.Context, _, _ uuid.UUID, _, _ *uuid.UUID) (*models.ReviewQueueItem, error) {
				return nil, fmt.Errorf("%w: turner const", apperrors.ErrAliasConflict)
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Merge(rec, reviewRequest(t, http.MethodPost, "/merge", nil, orgID, itemID.String()))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "alias_conflict")
	})
}

func TestReviewHandler_Link(t *testing.T) {
	orgID := uuid.New()
	itemID := uuid.New()
	targetID := uuid.New()

	t.Run("requires target_id", func(t *testing.T) {
		h := NewReviewHandler(&mockReviewService{}, zap.NewNop())

		rec := httptest.NewRecorder()
		h.Link(rec, reviewRequest(t, http.MethodPost, "/link", []byte(`{}`), orgID, itemID.String()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "target_id is required")
	})

	t.Run("merges into the chosen contractor", func(t *testing.T) {
		var gotTarget *uuid.UUID
		svc := &mockReviewService{
			MergeFunc: func(ctx context.Context, _, _ uuid.UUID, target, _ *uuid.UUID) (*models.ReviewQueueItem, error) {
				gotTarget = target
				return &models.ReviewQueueItem{ID: itemID, Status: models.StatusMerged}, nil
			},
		}
		h := NewReviewHandler(svc, zap.NewNop())

		body := []byte(`{"target_id":"` + targetID.String() + `"}`)
		rec := httptest.NewRecorder()
		h.Link(rec, reviewRequest(t, http.MethodPost, "/link", body, orgID, itemID.String()))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotTarget)
		assert.Equal(t, targetID, *gotTarget)
	})
}

func TestReviewHandler_Delete(t *testing.T) {
	orgID := uuid.New()
	itemID := uuid.New()

	h := NewReviewHandler(&mockReviewService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Delete(rec, reviewRequest(t, http.MethodPost, "/delete", nil, orgID, itemID.String()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")
}

func TestReviewHandler_Stats(t *testing.T) {
	orgID := uuid.New()
	svc := &mockReviewService{
		StatsFunc: func(ctx context.Context) (*models.ReviewQueueStats, error) {
			return &models.ReviewQueueStats{Pending: 2, Approved: 5, Merged: 1, Deleted: 3}, nil
		},
	}
	h := NewReviewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Stats(rec, reviewRequest(t, http.MethodGet, "/stats", nil, orgID, ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":2`)
}
