package postgres

import (
	"context"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DealRepository implements domain.DealRepository.
type DealRepository struct {
	pool *pgxpool.Pool
}

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

func (r *DealRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Deal, error) {
	const q = `
		SELECT id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
		       status, version, current_scenario_id, created_at, updated_at
		FROM deals WHERE tenant_id = $1 AND id = $2`
	row := r.pool.QueryRow(context.Background(), q, tenantID, id)
	d, err := scanDeal(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDealNotFound
		}
		return nil, err
	}
	return d, nil
}

// GetByIDForUpdate locks the deal row, used by updateDeal/transitionStatus
// to hold the row for the duration of their optimistic-version check and
// write.
func (r *DealRepository) GetByIDForUpdate(tx domain.Tx, tenantID int32, id uuid.UUID) (*domain.Deal, error) {
	const q = `
		SELECT id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
		       status, version, current_scenario_id, created_at, updated_at
		FROM deals WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	row := db(r.pool, tx).QueryRow(context.Background(), q, tenantID, id)
	d, err := scanDeal(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDealNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DealRepository) Create(tx domain.Tx, d *domain.Deal) (*domain.Deal, error) {
	const q = `
		INSERT INTO deals
			(id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
			 status, version, current_scenario_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
		RETURNING id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
		          status, version, current_scenario_id, created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q,
		d.ID, d.TenantID, d.DealNumber, d.CustomerID, d.VehicleID, d.SalespersonID,
		string(d.Status), d.CurrentScenarioID)
	return scanDeal(row)
}

// Update writes d, incrementing version, but only if the row's current
// version still equals expectedVersion — the optimistic-concurrency gate
// spec §5 requires. A zero rows-affected update (lost race) reports
// domain.ErrVersionConflict rather than silently doing nothing.
//
// A patch that changes nothing is a no-op: it leaves version unchanged and
// writes nothing, per spec §8's idempotence law. current is re-read under
// the row lock the caller is already holding (GetByIDForUpdate), so this
// adds no new locking.
func (r *DealRepository) Update(tx domain.Tx, d *domain.Deal, expectedVersion int32) (*domain.Deal, error) {
	current, err := r.GetByIDForUpdate(tx, d.TenantID, d.ID)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	if dealFieldsEqual(current, d) {
		return current, nil
	}

	const q = `
		UPDATE deals
		SET customer_id = $3, vehicle_id = $4, salesperson_id = $5, status = $6,
		    current_scenario_id = $7, version = version + 1, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND version = $8
		RETURNING id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
		          status, version, current_scenario_id, created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q,
		d.TenantID, d.ID, d.CustomerID, d.VehicleID, d.SalespersonID, string(d.Status),
		d.CurrentScenarioID, expectedVersion)
	updated, err := scanDeal(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrVersionConflict
		}
		return nil, err
	}
	return updated, nil
}

// dealFieldsEqual compares every column Update can write, ignoring
// Version/CreatedAt/UpdatedAt which the write itself would change.
func dealFieldsEqual(a, b *domain.Deal) bool {
	return a.CustomerID == b.CustomerID &&
		intPtrEqual(a.VehicleID, b.VehicleID) &&
		a.SalespersonID == b.SalespersonID &&
		a.Status == b.Status &&
		a.CurrentScenarioID == b.CurrentScenarioID
}

func intPtrEqual(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *DealRepository) ListByTenant(tenantID int32) ([]*domain.Deal, error) {
	const q = `
		SELECT id, tenant_id, deal_number, customer_id, vehicle_id, salesperson_id,
		       status, version, current_scenario_id, created_at, updated_at
		FROM deals WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(context.Background(), q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDeal(row rowScanner) (*domain.Deal, error) {
	var d domain.Deal
	var status string
	if err := row.Scan(
		&d.ID, &d.TenantID, &d.DealNumber, &d.CustomerID, &d.VehicleID, &d.SalespersonID,
		&status, &d.Version, &d.CurrentScenarioID, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = domain.DealStatus(status)
	return &d, nil
}
