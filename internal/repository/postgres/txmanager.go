package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// operationTimeout is the 10-second soft deadline spec §5 assigns to every
// ADLM operation; exceeding it aborts (rolls back) the transaction.
const operationTimeout = 10 * time.Second

// maxRetries and retryBackoff implement spec §4.9's retry policy: up to 3
// retries (4 attempts in all), with 100ms/200ms/400ms backoff, triggered only by a transient
// serialization failure or deadlock — every other error propagates
// immediately and is never retried.
const maxRetries = 3

var retryBackoff = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

// TransactionManager runs units of work against a pgxpool.Pool, satisfying
// domain.TransactionManager — the "withTransaction" storage collaborator
// the spec requires (§6.1).
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager constructs a TransactionManager over pool.
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	return &TransactionManager{pool: pool}
}

// pgxTx wraps a pgx.Tx so it satisfies the narrow domain.Tx marker
// interface while still being unwrappable by repositories that need the
// concrete pgx.Tx to run SQL.
type pgxTx struct {
	tx pgx.Tx
}

// Unwrap returns the concrete pgx.Tx, for repository implementations in
// this package that accept a domain.Tx and need to issue SQL against it.
func Unwrap(tx domain.Tx) pgx.Tx {
	if tx == nil {
		return nil
	}
	wrapped, ok := tx.(*pgxTx)
	if !ok {
		return nil
	}
	return wrapped.tx
}

// WithTransaction runs fn inside a default-isolation (read committed)
// transaction, committing on success and rolling back on any error or
// panic.
func (m *TransactionManager) WithTransaction(fn func(tx domain.Tx) error) error {
	return m.run(pgx.TxOptions{}, fn)
}

// WithSerializableTransaction runs fn inside a SERIALIZABLE transaction,
// retrying up to maxRetries times with exponential backoff when the
// database reports a serialization failure or deadlock. Every other error
// propagates immediately without retry, per spec §7.
func (m *TransactionManager) WithSerializableTransaction(fn func(tx domain.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := m.run(opts, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
		if attempt < maxRetries {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying serializable transaction after transient conflict")
			time.Sleep(retryBackoff[attempt])
		}
	}
	return lastErr
}

func (m *TransactionManager) run(opts pgx.TxOptions, fn func(tx domain.Tx) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&pgxTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Msg("rollback failed after transaction error")
		}
		return err
	}

	return tx.Commit(ctx)
}

// isRetryable reports whether err is the transient class of Postgres error
// (serialization failure, deadlock) the ADLM retries; every other error is
// final.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgCodeSerializationFailure || pgErr.Code == pgCodeDeadlockDetected
}
