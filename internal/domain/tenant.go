package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a dealership account. All desking data — deals,
// vehicles, customers — is scoped to exactly one tenant, and every
// repository query carries a tenant ID filter.
type Tenant struct {
	ID        int32     `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TenantRepository defines the interface for tenant persistence operations.
type TenantRepository interface {
	GetByID(id int32) (*Tenant, error)
	GetByOwnerID(ownerID uuid.UUID) (*Tenant, error)
	GetByOwnerAuth0ID(auth0ID string) (*Tenant, error)
	Create(tenant *Tenant) (*Tenant, error)
	Update(tenant *Tenant) (*Tenant, error)
}

// Role identifies what a user is permitted to do within a tenant.
type Role string

const (
	RoleSalesperson Role = "salesperson"
	RoleManager     Role = "manager"
	RoleAdmin       Role = "admin"
)

// CanOverridePrice reports whether the role may apply manager overrides
// to a deal's computed price (C9 enforces this at the service layer).
func (r Role) CanOverridePrice() bool {
	return r == RoleManager || r == RoleAdmin
}
