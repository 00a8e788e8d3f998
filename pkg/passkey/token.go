// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package passkey

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is an optional interface for issuing a token after a
// successful registration, so the client can act as the new user without
// a separate login round trip.
type TokenIssuer interface {
	// Issue creates a token for the registered identity.
	Issue(ctx context.Context, user UserIdentity) (string, error)
}

// RegistrationClaims are the JWT claims issued after registration.
type RegistrationClaims struct {
	// Username is the validated handle the credential was registered for.
	Username string `json:"username"`

	jwt.RegisteredClaims
}

// JWTTokenIssuer issues HMAC-signed JWTs for registered identities.
type JWTTokenIssuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// JWTTokenIssuerConfig contains configuration for the JWT token issuer.
type JWTTokenIssuerConfig struct {
	// SigningKey is the HMAC secret used to sign tokens (required).
	SigningKey []byte

	// Issuer is the JWT issuer claim (default: "mensahe").
	Issuer string

	// TTL is how long tokens are valid (default: 1 hour).
	TTL time.Duration
}

// NewJWTTokenIssuer creates a JWT token issuer with the given
// configuration.
func NewJWTTokenIssuer(config *JWTTokenIssuerConfig) (*JWTTokenIssuer, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(config.SigningKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}

	issuer := config.Issuer
	if issuer == "" {
		issuer = "mensahe"
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &JWTTokenIssuer{
		signingKey: config.SigningKey,
		issuer:     issuer,
		ttl:        ttl,
	}, nil
}

// Issue creates a signed token for the registered identity. The subject is
// the base64-encoded opaque user id.
func (g *JWTTokenIssuer) Issue(ctx context.Context, user UserIdentity) (string, error) {
	now := time.Now()
	claims := RegistrationClaims{
		Username: user.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   base64.RawURLEncoding.EncodeToString(user.ID),
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token previously issued by this issuer,
// returning its claims.
func (g *JWTTokenIssuer) Verify(tokenString string) (*RegistrationClaims, error) {
	claims := &RegistrationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.signingKey, nil
	}, jwt.WithIssuer(g.issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
