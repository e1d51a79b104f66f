package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VehicleRepository implements domain.VehicleRepository.
type VehicleRepository struct {
	pool *pgxpool.Pool
}

func NewVehicleRepository(pool *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

func (r *VehicleRepository) GetByID(tenantID int32, id int32) (*domain.Vehicle, error) {
	const q = `
		SELECT id, tenant_id, vin, stock_number, year, make, model, trim,
		       msrp, cost, status, reserved_for_deal_id, reserved_until,
		       created_at, updated_at
		FROM vehicles WHERE tenant_id = $1 AND id = $2`
	row := r.pool.QueryRow(context.Background(), q, tenantID, id)
	return scanVehicle(row)
}

// GetByIDForUpdate locks the vehicle row for the duration of the caller's
// transaction (spec §4.9's createDeal step 2: SELECT ... FOR UPDATE so two
// concurrent deals can never both reserve the same vehicle).
func (r *VehicleRepository) GetByIDForUpdate(tx domain.Tx, tenantID int32, id int32) (*domain.Vehicle, error) {
	const q = `
		SELECT id, tenant_id, vin, stock_number, year, make, model, trim,
		       msrp, cost, status, reserved_for_deal_id, reserved_until,
		       created_at, updated_at
		FROM vehicles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	row := db(r.pool, tx).QueryRow(context.Background(), q, tenantID, id)
	v, err := scanVehicle(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VehicleRepository) Create(v *domain.Vehicle) (*domain.Vehicle, error) {
	msrp, err := moneyToNumeric(v.MSRP)
	if err != nil {
		return nil, err
	}
	cost, err := moneyToNumeric(v.Cost)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO vehicles (tenant_id, vin, stock_number, year, make, model, trim, msrp, cost, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, tenant_id, vin, stock_number, year, make, model, trim,
		          msrp, cost, status, reserved_for_deal_id, reserved_until,
		          created_at, updated_at`
	row := r.pool.QueryRow(context.Background(), q,
		v.TenantID, v.VIN, v.StockNumber, v.Year, v.Make, v.Model, v.Trim, msrp, cost, string(v.Status))
	return scanVehicle(row)
}

// Update persists status/reservation changes. Must run inside the same
// transaction that read the row with GetByIDForUpdate when used as part of
// a reserve-or-release operation.
func (r *VehicleRepository) Update(tx domain.Tx, v *domain.Vehicle) (*domain.Vehicle, error) {
	const q = `
		UPDATE vehicles
		SET status = $3, reserved_for_deal_id = $4, reserved_until = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING id, tenant_id, vin, stock_number, year, make, model, trim,
		          msrp, cost, status, reserved_for_deal_id, reserved_until,
		          created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q,
		v.TenantID, v.ID, string(v.Status), v.ReservedForDealID, v.ReservedUntil)
	return scanVehicle(row)
}

func (r *VehicleRepository) ListAvailable(tenantID int32) ([]*domain.Vehicle, error) {
	const q = `
		SELECT id, tenant_id, vin, stock_number, year, make, model, trim,
		       msrp, cost, status, reserved_for_deal_id, reserved_until,
		       created_at, updated_at
		FROM vehicles WHERE tenant_id = $1 AND status = 'available'
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(context.Background(), q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows, so scanVehicle can
// back either a single-row lookup or a ListAvailable iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var msrp, cost pgtype.Numeric
	var status string
	if err := row.Scan(
		&v.ID, &v.TenantID, &v.VIN, &v.StockNumber, &v.Year, &v.Make, &v.Model, &v.Trim,
		&msrp, &cost, &status, &v.ReservedForDealID, &v.ReservedUntil,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v.MSRP = numericToMoney(msrp)
	v.Cost = numericToMoney(cost)
	v.Status = domain.VehicleStatus(status)
	return &v, nil
}
