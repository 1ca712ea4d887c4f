package domain

import (
	"slices"
	"time"
)

// RoleAdmin grants event administration and auto-matching.
const RoleAdmin = "admin"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Roles  []string
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool {
	return slices.Contains(p.Roles, RoleAdmin)
}

// TokenIssuer issues tokens (e.g. JWT) for a user.
type TokenIssuer interface {
	Issue(userID string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}
