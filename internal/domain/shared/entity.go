package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all persisted domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TenantEntity is a tenant-scoped entity carrying an optimistic-lock version
type TenantEntity struct {
	BaseEntity
	TenantID uuid.UUID
	Version  int
}

// NewTenantEntity creates a tenant-scoped entity at version 1
func NewTenantEntity(tenantID uuid.UUID) TenantEntity {
	return TenantEntity{
		BaseEntity: NewBaseEntity(),
		TenantID:   tenantID,
		Version:    1,
	}
}

// GetTenantID returns the owning tenant
func (t *TenantEntity) GetTenantID() uuid.UUID {
	return t.TenantID
}

// GetVersion returns the version for optimistic locking
func (t *TenantEntity) GetVersion() int {
	return t.Version
}
