package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bidintell-inc/bidiq-engine/pkg/database"
)

// OrgMiddleware wraps a handler with an org-scoped database connection.
type OrgMiddleware func(http.HandlerFunc) http.HandlerFunc

// NewOrgMiddleware builds middleware that reads the {oid} path segment,
// acquires an org-scoped connection, and stores it in the request context.
// The scope is released when the handler returns.
func NewOrgMiddleware(db *database.DB, logger *zap.Logger) OrgMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			orgID, err := uuid.Parse(r.PathValue("oid"))
			if err != nil {
				if err := ErrorResponse(w, http.StatusBadRequest, "invalid_org_id", "Invalid organization ID"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}

			scope, err := db.WithOrg(r.Context(), orgID)
			if err != nil {
				logger.Error("Failed to acquire org scope",
					zap.String("org_id", orgID.String()),
					zap.Error(err))
				if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}
			defer scope.Close()

			next(w, r.WithContext(database.SetOrgScope(r.Context(), scope)))
		}
	}
}

// OrgID extracts the {oid} path value. The middleware already validated it.
func OrgID(r *http.Request) uuid.UUID {
	id, _ := uuid.Parse(r.PathValue("oid"))
	return id
}
