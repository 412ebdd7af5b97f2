package middleware

import (
	"net/http"

	"github.com/erp/settlement/internal/infrastructure/logger"
	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantConfig controls where the tenant comes from
type TenantConfig struct {
	// HeaderEnabled accepts X-Tenant-ID when no token set a tenant. Development only.
	HeaderEnabled bool
	SkipPaths     []string
}

// Tenant resolves the request tenant from JWT claims, falling back to X-Tenant-ID when allowed.
// Requests without a tenant are rejected.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		raw := GetJWTTenantID(c)
		if raw == "" && cfg.HeaderEnabled {
			raw = c.GetHeader(TenantHeaderKey)
		}
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant context required")
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

// GetTenantUUID returns the tenant resolved by Tenant
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
