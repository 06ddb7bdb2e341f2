package database

import (
	"context"

	"github.com/google/uuid"
)

// OrgScope wraps a connection with organization context and ensures cleanup.
// The connection has app.current_org_id set for RLS policy evaluation.
type OrgScope struct {
	Conn Querier

	reset   func()
	release func()
}

// Close resets org context and releases the connection to the pool.
// This MUST be called to prevent org context from leaking to the next request.
func (s *OrgScope) Close() {
	if s.reset != nil {
		s.reset()
	}
	if s.release != nil {
		s.release()
	}
}

// NewScope wraps an arbitrary Querier in an OrgScope. Used to run repository
// code inside an already-open transaction, and by tests against mocks.
// Close is a no-op for scopes built this way.
func NewScope(q Querier) *OrgScope {
	return &OrgScope{Conn: q}
}

// WithOrg acquires a connection and sets the org context for RLS.
// The returned OrgScope MUST be closed with defer scope.Close().
func (db *DB) WithOrg(ctx context.Context, orgID uuid.UUID) (*OrgScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_org_id', $1, false)", orgID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &OrgScope{
		Conn: conn,
		reset: func() {
			_, _ = conn.Exec(context.Background(), "RESET app.current_org_id")
		},
		release: conn.Release,
	}, nil
}
