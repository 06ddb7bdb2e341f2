package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// SearchRequest for POST /api/orgs/{oid}/contractors/search
type SearchRequest struct {
	Query string `json:"query"`
	// IncludeUnapproved also surfaces provisional contractors in tier 1.
	IncludeUnapproved bool `json:"include_unapproved,omitempty"`
}

// SubmitContractorRequest for POST /api/orgs/{oid}/contractors
type SubmitContractorRequest struct {
	Name            string   `json:"name"`
	City            string   `json:"city,omitempty"`
	Region          string   `json:"region,omitempty"`
	RiskTags        []string `json:"risk_tags,omitempty"`
	StarRating      int      `json:"star_rating,omitempty"`
	SubmittedBy     *string  `json:"submitted_by,omitempty"`
	OriginProjectID *string  `json:"origin_project_id,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ContractorHandler handles contractor search and submission HTTP requests.
type ContractorHandler struct {
	matcher    services.MatcherService
	submission services.SubmissionService
	logger     *zap.Logger
}

// NewContractorHandler creates a new contractor handler.
func NewContractorHandler(
	matcher services.MatcherService,
	submission services.SubmissionService,
	logger *zap.Logger,
) *ContractorHandler {
	return &ContractorHandler{
		matcher:    matcher,
		submission: submission,
		logger:     logger,
	}
}

// RegisterRoutes registers the contractor handler's routes on the given mux.
func (h *ContractorHandler) RegisterRoutes(mux *http.ServeMux, orgMiddleware OrgMiddleware) {
	base := "/api/orgs/{oid}/contractors"

	mux.HandleFunc("POST "+base+"/search", orgMiddleware(h.Search))
	mux.HandleFunc("POST "+base, orgMiddleware(h.Submit))
}

// Search handles POST /api/orgs/{oid}/contractors/search
func (h *ContractorHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.matcher.Search(r.Context(), OrgID(r), req.Query, req.IncludeUnapproved)
	if err != nil {
		h.logger.Error("Contractor search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}

// Submit handles POST /api/orgs/{oid}/contractors
func (h *ContractorHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitContractorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	submitReq := services.SubmitRequest{
		OrgID:      OrgID(r),
		RawName:    req.Name,
		City:       req.City,
		Region:     req.Region,
		RiskTags:   req.RiskTags,
		StarRating: req.StarRating,
	}

	if req.SubmittedBy != nil {
		id, err := uuid.Parse(*req.SubmittedBy)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid submitted_by"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		submitReq.SubmittedBy = &id
	}
	if req.OriginProjectID != nil {
		id, err := uuid.Parse(*req.OriginProjectID)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid origin_project_id"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		submitReq.OriginProjectID = &id
	}

	result, err := h.submission.Submit(r.Context(), submitReq)
	if err != nil {
		h.logger.Error("Contractor submission failed",
			zap.String("name", req.Name),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, result); err != nil {
		h.logger.Error("Failed to encode submission response", zap.Error(err))
	}
}
