package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// APITokenRepository implements domain.APITokenRepository.
type APITokenRepository struct {
	pool *pgxpool.Pool
}

func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{pool: pool}
}

func (r *APITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	const q = `
		INSERT INTO api_tokens (user_id, tenant_id, description, token_hash, token_prefix)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, token.UserID, token.TenantID, token.Description, token.TokenHash, token.TokenPrefix).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *APITokenRepository) GetByTenant(ctx context.Context, tenantID int32) ([]*domain.APIToken, error) {
	const q = `
		SELECT id, user_id, tenant_id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE tenant_id = $1 AND revoked_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.APIToken
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *APITokenRepository) GetByID(ctx context.Context, tenantID int32, id uuid.UUID) (*domain.APIToken, error) {
	const q = `
		SELECT id, user_id, tenant_id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE tenant_id = $1 AND id = $2`
	row := r.pool.QueryRow(ctx, q, tenantID, id)
	t, err := scanAPIToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	const q = `
		SELECT id, user_id, tenant_id, description, token_hash, token_prefix, last_used_at, created_at, revoked_at
		FROM api_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`
	row := r.pool.QueryRow(ctx, q, hash)
	t, err := scanAPIToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *APITokenRepository) Revoke(ctx context.Context, tenantID int32, id uuid.UUID) error {
	const q = `UPDATE api_tokens SET revoked_at = now() WHERE tenant_id = $1 AND id = $2 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAPITokenNotFound
	}
	return nil
}

func (r *APITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE api_tokens SET last_used_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func scanAPIToken(row rowScanner) (*domain.APIToken, error) {
	var t domain.APIToken
	if err := row.Scan(
		&t.ID, &t.UserID, &t.TenantID, &t.Description, &t.TokenHash, &t.TokenPrefix,
		&t.LastUsedAt, &t.CreatedAt, &t.RevokedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
