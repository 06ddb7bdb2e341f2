package database

import "context"

type contextKey string

const (
	// OrgScopeKey is the context key for storing the org-scoped database connection.
	OrgScopeKey contextKey = "orgScope"
)

// GetOrgScope retrieves the org-scoped database connection from context.
// Returns nil and false if not present.
func GetOrgScope(ctx context.Context) (*OrgScope, bool) {
	scope, ok := ctx.Value(OrgScopeKey).(*OrgScope)
	return scope, ok
}

// SetOrgScope stores the org-scoped database connection in context.
func SetOrgScope(ctx context.Context, scope *OrgScope) context.Context {
	return context.WithValue(ctx, OrgScopeKey, scope)
}
