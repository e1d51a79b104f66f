package postgres

import (
	"context"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeLogRepository implements domain.ChangeLogRepository: an
// append-only table, never updated or deleted from.
type ChangeLogRepository struct {
	pool *pgxpool.Pool
}

func NewChangeLogRepository(pool *pgxpool.Pool) *ChangeLogRepository {
	return &ChangeLogRepository{pool: pool}
}

func (r *ChangeLogRepository) Append(tx domain.Tx, entry *domain.ScenarioChangeLog) error {
	const q = `
		INSERT INTO scenario_change_logs
			(id, scenario_id, deal_id, user_id, field_name, old_value, new_value,
			 change_type, calculation_snapshot, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := db(r.pool, tx).Exec(context.Background(), q,
		entry.ID, entry.ScenarioID, entry.DealID, entry.UserID, entry.FieldName,
		entry.OldValue, entry.NewValue, string(entry.ChangeType), entry.CalculationSnapshot,
		entry.Metadata, entry.Timestamp)
	return err
}

func (r *ChangeLogRepository) History(scenarioID uuid.UUID) ([]*domain.ScenarioChangeLog, error) {
	const q = `
		SELECT id, scenario_id, deal_id, user_id, field_name, old_value, new_value,
		       change_type, calculation_snapshot, metadata, timestamp
		FROM scenario_change_logs
		WHERE scenario_id = $1
		ORDER BY timestamp ASC`
	rows, err := r.pool.Query(context.Background(), q, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ScenarioChangeLog
	for rows.Next() {
		var e domain.ScenarioChangeLog
		var changeType string
		if err := rows.Scan(
			&e.ID, &e.ScenarioID, &e.DealID, &e.UserID, &e.FieldName, &e.OldValue, &e.NewValue,
			&changeType, &e.CalculationSnapshot, &e.Metadata, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		e.ChangeType = domain.ScenarioChangeType(changeType)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *ChangeLogRepository) LatestTimestamp(scenarioID uuid.UUID) (time.Time, error) {
	const q = `SELECT max(timestamp) FROM scenario_change_logs WHERE scenario_id = $1`
	var ts *time.Time
	if err := r.pool.QueryRow(context.Background(), q, scenarioID).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}
