package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of an access token the client cares to display.
type Claims struct {
	UserID    string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim lies before now. Tokens without exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes JWT claims without verifying the signature.
// The result is informational only; renewal is driven by server responses, not by exp.
func Inspect(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("decoding token: %w", err)
	}

	var claims Claims
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if v, ok := mapClaims["user_id"]; ok {
		claims.UserID = fmt.Sprint(v)
	} else if sub, err := mapClaims.GetSubject(); err == nil {
		claims.UserID = sub
	}
	if v, ok := mapClaims["token_type"].(string); ok {
		claims.TokenType = v
	}

	return claims, nil
}
