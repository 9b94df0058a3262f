// Package jwt validates the identity provider's HMAC-signed bearer tokens.
package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	authmw "declara/pkg/platform/middleware/auth"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingActor = errors.New("token has no subject claim")
)

// Validator checks HS256 tokens against a shared signing secret.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ValidateToken parses and verifies a bearer token, returning the actor
// identity claims the audit trail attributes actions to.
func (v *Validator) ValidateToken(tokenString string) (*authmw.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrMissingActor
	}

	out := &authmw.Claims{ActorID: sub}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	return out, nil
}
