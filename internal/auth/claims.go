package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: every call-control request is scoped to a
// WorkspaceID; tokens without one cannot reach the calls API.
// Hidden/admin override capabilities are decided server-side in internal/rbac,
// never encoded in the token beyond the role string.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	WorkspaceID string    `json:"workspace_id"`
	Role        string    `json:"role"`
	TokenType   TokenType `json:"token_type"`
}
