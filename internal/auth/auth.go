// Package auth maps authenticated callers to roles and decides whether a
// session may mutate the table. Storage is not role-aware; every check
// happens at the service or API boundary.
package auth

import "crypto/subtle"

// Role is the authorization level of a session.
type Role string

const (
	// RoleAdmin may read and mutate the table.
	RoleAdmin Role = "admin"
	// RoleViewer may query, aggregate, and export, but not mutate.
	RoleViewer Role = "viewer"
)

// Session is the explicit caller identity passed into every service
// call. There is no ambient process-wide login state.
type Session struct {
	Authenticated bool
	Role          Role
}

// CanMutate reports whether the session may call add, edit, delete, or
// import.
func (s Session) CanMutate() bool {
	return s.Authenticated && s.Role == RoleAdmin
}

// Gate resolves bearer tokens to sessions. Tokens are compared in
// constant time.
type Gate struct {
	adminToken  string
	viewerToken string
}

// NewGate builds a gate from per-role tokens. An empty token disables
// that role entirely.
func NewGate(adminToken, viewerToken string) *Gate {
	return &Gate{adminToken: adminToken, viewerToken: viewerToken}
}

// SessionForToken returns the session for a presented token, or an
// unauthenticated session if the token matches no role.
func (g *Gate) SessionForToken(token string) Session {
	if tokenEqual(token, g.adminToken) {
		return Session{Authenticated: true, Role: RoleAdmin}
	}
	if tokenEqual(token, g.viewerToken) {
		return Session{Authenticated: true, Role: RoleViewer}
	}
	return Session{}
}

func tokenEqual(presented, configured string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
