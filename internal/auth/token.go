package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AccessToken is what the client can read from an access token.
type AccessToken struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token is expired, or will be within leeway.
func (t AccessToken) Expired(now time.Time, leeway time.Duration) bool {
	return !t.ExpiresAt.After(now.Add(leeway))
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken reads the claims of token without checking its
// signature; only the auth service holds the key.
func ParseAccessToken(token string) (AccessToken, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return AccessToken{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return AccessToken{}, fmt.Errorf("access token has no expiry")
	}

	at := AccessToken{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		at.IssuedAt = claims.IssuedAt.Time
	}
	return at, nil
}
