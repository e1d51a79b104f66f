package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// queryer is the common surface pgxpool.Pool and pgx.Tx both implement,
// letting every repository method run against either a bare pool
// connection or an in-flight transaction without duplicating SQL.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// db resolves a domain.Tx to the queryer it should run against: the
// unwrapped pgx.Tx when a transaction was passed in, otherwise the bare
// pool.
func db(pool *pgxpool.Pool, tx domain.Tx) queryer {
	if tx == nil {
		return pool
	}
	if unwrapped := Unwrap(tx); unwrapped != nil {
		return unwrapped
	}
	return pool
}
