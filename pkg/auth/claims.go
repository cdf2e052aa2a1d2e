package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Scopes granted to service tokens calling the maintenance API.
const (
	ScopeTasksEnqueue = "tasks:enqueue"
	ScopeAdmin        = "admin"
)

// ServiceTokenPayload captures the data available when minting a JWT.
type ServiceTokenPayload struct {
	Subject string
	Scopes  []string
	JTI     string
}

// ServiceTokenClaims represents the typed JWT presented by operators and
// internal services calling the maintenance API.
type ServiceTokenClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants the given scope. Admin
// tokens grant everything.
func (c *ServiceTokenClaims) HasScope(scope string) bool {
	for _, granted := range c.Scopes {
		if granted == scope || granted == ScopeAdmin {
			return true
		}
	}
	return false
}
