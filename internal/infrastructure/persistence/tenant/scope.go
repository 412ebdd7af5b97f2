// Package tenant scopes GORM statements to a single tenant.
//
// Every settlement table carries a tenant_id column; repositories apply
// Scope to each statement instead of repeating the condition:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&rows)
package tenant

import (
	"context"
	"errors"

	"github.com/erp/settlement/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant column shared by the settlement tables
const Column = "tenant_id"

// ErrTenantIDRequired is returned when a statement has no tenant to scope to
var ErrTenantIDRequired = errors.New("tenant_id is required")

// ErrInvalidTenantID is returned when the context carries a malformed tenant id
var ErrInvalidTenantID = errors.New("invalid tenant_id format")

// Scope filters by tenantID. A nil tenant fails the statement instead of reading across tenants.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

// FromContext scopes to the tenant the HTTP middleware stored in ctx
func FromContext(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	raw := logger.GetTenantID(ctx)
	if raw == "" {
		return Scope(uuid.Nil)
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		return func(db *gorm.DB) *gorm.DB {
			_ = db.AddError(ErrInvalidTenantID)
			return db
		}
	}
	return Scope(tenantID)
}
