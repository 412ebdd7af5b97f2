package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/settlement/internal/infrastructure/auth"
	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Validator *auth.TokenValidator
	// SkipPaths don't require authentication; a trailing * matches a prefix
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth rejects requests without a valid bearer access token and stores its claims
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		tokenString, ok := strings.CutPrefix(header, BearerPrefix)
		if header == "" || !ok || tokenString == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.Validator.Validate(tokenString)
		if err != nil {
			cfg.Logger.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			code, message := dto.ErrCodeTokenInvalid, "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, message = dto.ErrCodeTokenExpired, "Token has expired"
			}
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Next()
	}
}

// GetJWTClaims returns the validated claims, nil when the request was not authenticated
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTTenantID returns the tenant id carried by the token
func GetJWTTenantID(c *gin.Context) string {
	return c.GetString(JWTTenantIDKey)
}
