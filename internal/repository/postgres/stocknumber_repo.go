package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockNumberRepository implements domain.StockNumberRepository: an
// atomic per-tenant, per-year counter backing deal-number minting.
type StockNumberRepository struct {
	pool *pgxpool.Pool
}

func NewStockNumberRepository(pool *pgxpool.Pool) *StockNumberRepository {
	return &StockNumberRepository{pool: pool}
}

// NextDealNumber atomically increments the (tenantID, year) sequence and
// formats the result as "YYYY-MMDD-NNNN". The upsert-then-increment is a
// single statement so two concurrent createDeal calls in the same tenant
// and year can never observe or mint the same number — the row lock
// implied by the UPDATE serializes them.
func (r *StockNumberRepository) NextDealNumber(tx domain.Tx, tenantID int32, now time.Time) (string, error) {
	year := now.Year()

	const q = `
		INSERT INTO stock_number_sequences (tenant_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, year)
		DO UPDATE SET last_number = stock_number_sequences.last_number + 1
		RETURNING last_number`

	var next int32
	if err := db(r.pool, tx).QueryRow(context.Background(), q, tenantID, year).Scan(&next); err != nil {
		return "", err
	}

	return fmt.Sprintf("%04d-%02d%02d-%04d", year, now.Month(), now.Day(), next), nil
}
