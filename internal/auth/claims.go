package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the fields the client reads out of an ID token.
type IdentityClaims struct {
	UID   string
	Email string
}

// ParseIdentityClaims extracts the provider uid and email from an ID token
// without verifying the signature. The token was just issued to us over TLS
// and the backend verifies it on every request; the client only needs the
// claims for display and user-record lookup.
func ParseIdentityClaims(idToken string) (IdentityClaims, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return IdentityClaims{}, fmt.Errorf("failed to parse ID token: %w", err)
	}

	out := IdentityClaims{}
	if uid, ok := claims["user_id"].(string); ok {
		out.UID = uid
	} else if sub, err := claims.GetSubject(); err == nil {
		out.UID = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}

	if out.UID == "" {
		return IdentityClaims{}, fmt.Errorf("ID token carries no user id claim")
	}
	return out, nil
}
