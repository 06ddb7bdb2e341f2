package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/models"
	"github.com/bidintell-inc/bidiq-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ReviewQueueResponse for GET /api/orgs/{oid}/review-queue
type ReviewQueueResponse struct {
	Items []*models.ReviewQueueItem `json:"items"`
	Total int                       `json:"total"`
}

// ResolveRequest carries the optional fields of a resolution action.
type ResolveRequest struct {
	ReviewerID *string `json:"reviewer_id,omitempty"`
	// TargetID overrides the suggested merge target. Merge only.
	TargetID *string `json:"target_id,omitempty"`
	// FormattedName overwrites the provisional name. Approve only.
	FormattedName *string `json:"formatted_name,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ReviewHandler handles review queue HTTP requests.
type ReviewHandler struct {
	review services.ReviewService
	logger *zap.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(review services.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		review: review,
		logger: logger,
	}
}

// RegisterRoutes registers the review handler's routes on the given mux.
func (h *ReviewHandler) RegisterRoutes(mux *http.ServeMux, orgMiddleware OrgMiddleware) {
	base := "/api/orgs/{oid}/review-queue"

	mux.HandleFunc("GET "+base, orgMiddleware(h.List))
	mux.HandleFunc("GET "+base+"/stats", orgMiddleware(h.Stats))
	mux.HandleFunc("POST "+base+"/{item}/approve", orgMiddleware(h.Approve))
	mux.HandleFunc("POST "+base+"/{item}/merge", orgMiddleware(h.Merge))
	mux.HandleFunc("POST "+base+"/{item}/link", orgMiddleware(h.Link))
	mux.HandleFunc("POST "+base+"/{item}/delete", orgMiddleware(h.Delete))
}

// List handles GET /api/orgs/{oid}/review-queue
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.review.ListPending(r.Context())
	if err != nil {
		h.logger.Error("Failed to list review queue", zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if items == nil {
		items = []*models.ReviewQueueItem{}
	}
	if err := WriteJSON(w, http.StatusOK, ReviewQueueResponse{Items: items, Total: len(items)}); err != nil {
		h.logger.Error("Failed to encode review queue response", zap.Error(err))
	}
}

// Stats handles GET /api/orgs/{oid}/review-queue/stats
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.review.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to load review queue stats", zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to encode stats response", zap.Error(err))
	}
}

// Approve handles POST /api/orgs/{oid}/review-queue/{item}/approve
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	itemID, req, ok := h.parseResolution(w, r)
	if !ok {
		return
	}

	item, err := h.review.Approve(r.Context(), OrgID(r), itemID, req.formattedName, req.reviewerID)
	if err != nil {
		h.logger.Error("Approve failed",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode approve response", zap.Error(err))
	}
}

// Merge handles POST /api/orgs/{oid}/review-queue/{item}/merge
func (h *ReviewHandler) Merge(w http.ResponseWriter, r *http.Request) {
	itemID, req, ok := h.parseResolution(w, r)
	if !ok {
		return
	}

	item, err := h.review.Merge(r.Context(), OrgID(r), itemID, req.targetID, req.reviewerID)
	if err != nil {
		h.logger.Error("Merge failed",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode merge response", zap.Error(err))
	}
}

// Link handles POST /api/orgs/{oid}/review-queue/{item}/link
// Link is a merge into a reviewer-chosen contractor, so target_id is required.
func (h *ReviewHandler) Link(w http.ResponseWriter, r *http.Request) {
	itemID, req, ok := h.parseResolution(w, r)
	if !ok {
		return
	}

	if req.targetID == nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "target_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.review.Merge(r.Context(), OrgID(r), itemID, req.targetID, req.reviewerID)
	if err != nil {
		h.logger.Error("Link failed",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode link response", zap.Error(err))
	}
}

// Delete handles POST /api/orgs/{oid}/review-queue/{item}/delete
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, req, ok := h.parseResolution(w, r)
	if !ok {
		return
	}

	item, err := h.review.Delete(r.Context(), OrgID(r), itemID, req.reviewerID)
	if err != nil {
		h.logger.Error("Delete failed",
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}

type resolution struct {
	reviewerID    *uuid.UUID
	targetID      *uuid.UUID
	formattedName *string
}

// parseResolution reads the {item} path value and the optional JSON body
// shared by all resolution actions. An empty body is fine.
func (h *ReviewHandler) parseResolution(w http.ResponseWriter, r *http.Request) (uuid.UUID, resolution, bool) {
	itemID, err := uuid.Parse(r.PathValue("item"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_item_id", "Invalid review queue item ID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, resolution{}, false
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, resolution{}, false
	}

	var res resolution
	if req.ReviewerID != nil {
		id, err := uuid.Parse(*req.ReviewerID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid reviewer_id"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return uuid.Nil, resolution{}, false
		}
		res.reviewerID = &id
	}
	if req.TargetID != nil {
		id, err := uuid.Parse(*req.TargetID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid target_id"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return uuid.Nil, resolution{}, false
		}
		res.targetID = &id
	}
	res.formattedName = req.FormattedName

	return itemID, res, true
}
