package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerRepository implements domain.CustomerRepository.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Customer, error) {
	const q = `
		SELECT id, tenant_id, first_name, last_name, email, phone, created_at, updated_at
		FROM customers WHERE tenant_id = $1 AND id = $2`
	row := r.pool.QueryRow(context.Background(), q, tenantID, id)
	c, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

// FindByContact looks up a customer by exact (email, phone) match within
// an in-flight transaction, so createDeal can find-or-create without a
// race between the lookup and the insert.
func (r *CustomerRepository) FindByContact(tx domain.Tx, tenantID int32, email, phone string) (*domain.Customer, error) {
	const q = `
		SELECT id, tenant_id, first_name, last_name, email, phone, created_at, updated_at
		FROM customers WHERE tenant_id = $1 AND email = $2 AND phone = $3`
	row := db(r.pool, tx).QueryRow(context.Background(), q, tenantID, email, phone)
	c, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) Create(tx domain.Tx, c *domain.Customer) (*domain.Customer, error) {
	const q = `
		INSERT INTO customers (tenant_id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, tenant_id, first_name, last_name, email, phone, created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone)
	return scanCustomer(row)
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
