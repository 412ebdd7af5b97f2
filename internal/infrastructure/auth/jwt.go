// Package auth validates the bearer tokens issued by the ERP identity service.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/erp/settlement/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type this service accepts
const TokenTypeAccess = "access"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the access token claims shared with the identity service
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
}

// TokenValidator checks HS256 access tokens
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a validator for the configured secret and issuer
func NewTokenValidator(cfg config.JWTConfig) *TokenValidator {
	return &TokenValidator{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Validate parses a token and checks its signature, lifetime, type and identity claims
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() uuid.UUID {
	id, _ := uuid.Parse(c.TenantID)
	return id
}

// UserUUID parses the user claim
func (c *Claims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// HasPermission reports whether the token grants a permission
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// RemainingTTL returns the time until expiry, zero when already expired
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
