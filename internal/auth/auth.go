// Package auth issues and validates the JWTs that identify callers. The core
// services never authenticate; they only receive the decoded claims.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleTechnician || r == RoleAdmin
}

type ctxKey int

// ClaimsKey is the request-context key under which middleware stores the
// authenticated caller's claims.
const ClaimsKey ctxKey = 1

type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// IsAdmin reports whether the caller may act on any record.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Owns reports whether the caller owns the record belonging to userID.
func (c Claims) Owns(userID string) bool { return c.Subject == userID }

type Keys struct {
	secret []byte
}

func NewKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

const tokenTTL = 30 * 24 * time.Hour

func (k *Keys) GenerateToken(userID string, role Role) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(k.secret)
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
