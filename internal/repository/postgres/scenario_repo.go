package postgres

import (
	"context"
	"encoding/json"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScenarioRepository implements domain.ScenarioRepository. A Scenario's
// DealInput and ComputedQuote are stored as jsonb: both are trees of
// money.Money/money.Rate values that already round-trip through their own
// MarshalJSON/UnmarshalJSON as exact decimal strings, so jsonb avoids a
// column explosion while still never touching a native float.
type ScenarioRepository struct {
	pool *pgxpool.Pool
}

func NewScenarioRepository(pool *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{pool: pool}
}

func (r *ScenarioRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Scenario, error) {
	const q = `
		SELECT s.id, s.deal_id, s.revision, s.input_json, s.quote_json, s.is_active,
		       s.created_at, s.updated_at
		FROM scenarios s
		JOIN deals d ON d.id = s.deal_id
		WHERE d.tenant_id = $1 AND s.id = $2`
	row := r.pool.QueryRow(context.Background(), q, tenantID, id)
	s, err := scanScenario(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *ScenarioRepository) Create(tx domain.Tx, s *domain.Scenario) (*domain.Scenario, error) {
	inputJSON, err := json.Marshal(s.Input)
	if err != nil {
		return nil, err
	}
	quoteJSON, err := json.Marshal(s.Quote)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO scenarios (id, deal_id, revision, input_json, quote_json, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, deal_id, revision, input_json, quote_json, is_active, created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q,
		s.ID, s.DealID, s.Revision, inputJSON, quoteJSON, s.IsActive)
	return scanScenario(row)
}

func (r *ScenarioRepository) Update(tx domain.Tx, s *domain.Scenario) (*domain.Scenario, error) {
	inputJSON, err := json.Marshal(s.Input)
	if err != nil {
		return nil, err
	}
	quoteJSON, err := json.Marshal(s.Quote)
	if err != nil {
		return nil, err
	}

	const q = `
		UPDATE scenarios
		SET revision = $3, input_json = $4, quote_json = $5, is_active = $6, updated_at = now()
		WHERE id = $1 AND deal_id = $2
		RETURNING id, deal_id, revision, input_json, quote_json, is_active, created_at, updated_at`
	row := db(r.pool, tx).QueryRow(context.Background(), q,
		s.ID, s.DealID, s.Revision, inputJSON, quoteJSON, s.IsActive)
	return scanScenario(row)
}

func (r *ScenarioRepository) ListByDeal(tenantID int32, dealID uuid.UUID) ([]*domain.Scenario, error) {
	const q = `
		SELECT s.id, s.deal_id, s.revision, s.input_json, s.quote_json, s.is_active,
		       s.created_at, s.updated_at
		FROM scenarios s
		JOIN deals d ON d.id = s.deal_id
		WHERE d.tenant_id = $1 AND s.deal_id = $2
		ORDER BY s.revision ASC`
	rows, err := r.pool.Query(context.Background(), q, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanScenario(row rowScanner) (*domain.Scenario, error) {
	var s domain.Scenario
	var inputJSON, quoteJSON []byte
	if err := row.Scan(&s.ID, &s.DealID, &s.Revision, &inputJSON, &quoteJSON, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputJSON, &s.Input); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(quoteJSON, &s.Quote); err != nil {
		return nil, err
	}
	return &s, nil
}
