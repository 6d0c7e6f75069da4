package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uint64
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to shoppers with accounts.
type AccessTokenClaims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
