package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates HS256 bearer tokens minted by the external auth
// service. Expected claims: "sub" (stable user id), "name" (display name),
// "role" ("learner" or "instructor").
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	name, _ := claims["name"].(string)
	if strings.TrimSpace(name) == "" {
		name = sub
	}

	role := RoleLearner
	if r, _ := claims["role"].(string); Role(r) == RoleInstructor {
		role = RoleInstructor
	}

	return &Identity{ID: sub, DisplayName: name, Role: role}, nil
}

// StaticVerifier maps fixed tokens to identities. Used in tests and local
// development where no auth service is running.
type StaticVerifier struct {
	Tokens map[string]*Identity
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if ident, ok := v.Tokens[token]; ok {
		return ident, nil
	}
	return nil, fmt.Errorf("unknown token")
}
