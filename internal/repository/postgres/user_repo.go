package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements domain.UserRepository using hand-written pgx
// SQL (the teacher's sqlc-generated Queries are not part of this
// retrieval, so every statement here is plain SQL).
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	const q = `SELECT id, auth0_id, email, name, picture_url, role, created_at, updated_at FROM users WHERE id = $1`
	row := r.pool.QueryRow(context.Background(), q, id)
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	const q = `SELECT id, auth0_id, email, name, picture_url, role, created_at, updated_at FROM users WHERE auth0_id = $1`
	row := r.pool.QueryRow(context.Background(), q, auth0ID)
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(user *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (auth0_id, email, name, picture_url, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, auth0_id, email, name, picture_url, role, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, user.Auth0ID, user.Email, user.Name, user.PictureURL, string(user.Role))
	return scanUser(row)
}

func (r *UserRepository) Update(user *domain.User) (*domain.User, error) {
	const q = `
		UPDATE users SET email = $2, name = $3, picture_url = $4, role = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, auth0_id, email, name, picture_url, role, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, user.ID, user.Email, user.Name, user.PictureURL, string(user.Role))
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	const q = `
		UPDATE users SET name = $2, updated_at = now()
		WHERE auth0_id = $1
		RETURNING id, auth0_id, email, name, picture_url, role, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, auth0ID, name)
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// CreateOrGetByAuth0ID upserts on first Auth0 login: a new user starts as
// a salesperson, the lowest-privilege role, and is promoted by an admin
// afterward.
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	const q = `
		INSERT INTO users (auth0_id, email, name, picture_url, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (auth0_id) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, auth0_id, email, name, picture_url, role, created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q, auth0ID, email, name, pictureURL, string(domain.RoleSalesperson))
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Auth0ID, &u.Email, &u.Name, &u.PictureURL, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
