package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

// IdentityPayload captures what is needed to mint an identity token.
type IdentityPayload struct {
	UserID string
	Role   enums.UserRole
	Email  string
}

// IdentityClaims is the bearer token presented by clients. Subject carries the
// identity provider uid.
type IdentityClaims struct {
	Role  enums.UserRole `json:"role,omitempty"`
	Email string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *IdentityClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
