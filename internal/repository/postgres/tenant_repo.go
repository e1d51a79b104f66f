package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepository implements domain.TenantRepository: a dealership
// account and the single owning user who first logged into it.
type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) GetByID(id int32) (*domain.Tenant, error) {
	const q = `SELECT id, owner_id, name, created_at, updated_at FROM tenants WHERE id = $1`
	row := r.pool.QueryRow(context.Background(), q, id)
	t, err := scanTenant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TenantRepository) GetByOwnerID(ownerID uuid.UUID) (*domain.Tenant, error) {
	const q = `SELECT id, owner_id, name, created_at, updated_at FROM tenants WHERE owner_id = $1`
	row := r.pool.QueryRow(context.Background(), q, ownerID)
	t, err := scanTenant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TenantRepository) GetByOwnerAuth0ID(auth0ID string) (*domain.Tenant, error) {
	const q = `
		SELECT t.id, t.owner_id, t.name, t.created_at, t.updated_at
		FROM tenants t JOIN users u ON u.id = t.owner_id
		WHERE u.auth0_id = $1`
	row := r.pool.QueryRow(context.Background(), q, auth0ID)
	t, err := scanTenant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TenantRepository) Create(tenant *domain.Tenant) (*domain.Tenant, error) {
	const q = `
		INSERT INTO tenants (owner_id, name)
		VALUES ($1, $2)
		RETURNING id, owner_id, name, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, tenant.OwnerID, tenant.Name)
	return scanTenant(row)
}

func (r *TenantRepository) Update(tenant *domain.Tenant) (*domain.Tenant, error) {
	const q = `
		UPDATE tenants SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, name, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, tenant.ID, tenant.Name)
	t, err := scanTenant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	var t domain.Tenant
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
