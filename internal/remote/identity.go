// ABOUTME: Identity providers: JWT bearer tokens issued by the mirror server, or a fixed user.
// ABOUTME: Claims is shared with the server so both sides agree on the token shape.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the payload of a mirror access token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// ParseTokenUnverified reads a token's claims without checking its signature.
// Only the server holds the signing key; clients use this to learn who they are.
func ParseTokenUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// TokenIdentity derives the current user from a bearer token.
type TokenIdentity struct {
	Token string
}

// UserID returns the token's uid claim. Missing, malformed or expired tokens
// mean there is no authenticated identity.
func (t TokenIdentity) UserID(_ context.Context) (string, error) {
	if t.Token == "" {
		return "", AuthRequired("identity")
	}
	claims, err := ParseTokenUnverified(t.Token)
	if err != nil {
		return "", fmt.Errorf("identity: %v: %w", err, ErrAuthRequired)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return "", fmt.Errorf("identity: token expired: %w", ErrAuthRequired)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("identity: token has no uid: %w", ErrAuthRequired)
	}
	return claims.UserID, nil
}

// StaticIdentity is a fixed user; empty means signed out.
type StaticIdentity string

// UserID returns the fixed user or ErrAuthRequired when empty.
func (s StaticIdentity) UserID(_ context.Context) (string, error) {
	if s == "" {
		return "", AuthRequired("identity")
	}
	return string(s), nil
}
