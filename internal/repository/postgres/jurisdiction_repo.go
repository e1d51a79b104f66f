package postgres

import (
	"context"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JurisdictionRepository implements domain.JurisdictionRepository using
// PostgreSQL, hand-written (the teacher's sqlc generator output was not
// part of this retrieval, so every statement here is plain SQL over pgx).
type JurisdictionRepository struct {
	pool *pgxpool.Pool
}

// NewJurisdictionRepository constructs a JurisdictionRepository.
func NewJurisdictionRepository(pool *pgxpool.Pool) *JurisdictionRepository {
	return &JurisdictionRepository{pool: pool}
}

// Resolve finds the jurisdiction row covering zip at asOfDate:
// effective_date <= asOfDate < end_date (or end_date is null, meaning
// still current).
func (r *JurisdictionRepository) Resolve(zip string, asOfDate time.Time) (*domain.Jurisdiction, error) {
	const q = `
		SELECT id, zip, state, county, city, township, special_district,
		       state_rate, county_rate, city_rate, township_rate, special_rate,
		       effective_date, end_date
		FROM jurisdictions
		WHERE zip = $1 AND effective_date <= $2 AND (end_date IS NULL OR end_date > $2)
		ORDER BY effective_date DESC
		LIMIT 1`

	row := r.pool.QueryRow(context.Background(), q, zip, asOfDate)
	j, err := scanJurisdiction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrJurisdictionNotFound
		}
		return nil, err
	}
	return j, nil
}

// Upsert inserts a new jurisdiction rate-vector row. Superseding an
// existing row is the caller's responsibility (end-date the old row, then
// insert the new one, in the same transaction) — this method only inserts.
func (r *JurisdictionRepository) Upsert(j *domain.Jurisdiction) (*domain.Jurisdiction, error) {
	stateRate, err := rateToNumeric(j.StateRate)
	if err != nil {
		return nil, err
	}
	countyRate, err := rateToNumeric(j.CountyRate)
	if err != nil {
		return nil, err
	}
	cityRate, err := rateToNumeric(j.CityRate)
	if err != nil {
		return nil, err
	}
	townshipRate, err := rateToNumeric(j.TownshipRate)
	if err != nil {
		return nil, err
	}
	specialRate, err := rateToNumeric(j.SpecialRate)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO jurisdictions
			(zip, state, county, city, township, special_district,
			 state_rate, county_rate, city_rate, township_rate, special_rate,
			 effective_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, zip, state, county, city, township, special_district,
		          state_rate, county_rate, city_rate, township_rate, special_rate,
		          effective_date, end_date`

	row := r.pool.QueryRow(context.Background(), q,
		j.Zip, j.State, j.County, j.City, j.Township, j.SpecialDistrict,
		stateRate, countyRate, cityRate, townshipRate, specialRate,
		j.EffectiveDate, j.EndDate,
	)
	return scanJurisdiction(row)
}

func scanJurisdiction(row pgx.Row) (*domain.Jurisdiction, error) {
	var j domain.Jurisdiction
	var stateRate, countyRate, cityRate, townshipRate, specialRate pgtype.Numeric
	if err := row.Scan(
		&j.ID, &j.Zip, &j.State, &j.County, &j.City, &j.Township, &j.SpecialDistrict,
		&stateRate, &countyRate, &cityRate, &townshipRate, &specialRate,
		&j.EffectiveDate, &j.EndDate,
	); err != nil {
		return nil, err
	}
	j.StateRate = numericToRate(stateRate)
	j.CountyRate = numericToRate(countyRate)
	j.CityRate = numericToRate(cityRate)
	j.TownshipRate = numericToRate(townshipRate)
	j.SpecialRate = numericToRate(specialRate)
	return &j, nil
}
