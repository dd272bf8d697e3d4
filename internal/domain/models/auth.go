package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// PlatformClaims are the JWT claims issued by the practice-management
// platform's identity provider.
type PlatformClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
