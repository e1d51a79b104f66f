package domain

import (
	"time"

	"github.com/dafibh/dealdesk-backend/internal/money"
)

// Jurisdiction is a versioned tax-rate vector for a five-digit ZIP code.
// Identity is the normalized ZIP; rows are point-in-time, queried by
// asOfDate against [EffectiveDate, EndDate).
type Jurisdiction struct {
	ID             int32
	Zip            string
	State          string
	County         string
	City           string
	Township       string
	SpecialDistrict string
	StateRate      money.Rate
	CountyRate     money.Rate
	CityRate       money.Rate
	TownshipRate   money.Rate
	SpecialRate    money.Rate
	EffectiveDate  time.Time
	EndDate        *time.Time
}

// TotalRate sums the rate vector.
func (j Jurisdiction) TotalRate() money.Rate {
	sum := j.StateRate.Decimal().
		Add(j.CountyRate.Decimal()).
		Add(j.CityRate.Decimal()).
		Add(j.TownshipRate.Decimal()).
		Add(j.SpecialRate.Decimal())
	return money.RateFromDecimal(sum)
}

// RateBreakdownLevel names one component of a jurisdiction's rate vector.
type RateBreakdownLevel string

const (
	LevelState    RateBreakdownLevel = "state"
	LevelCounty   RateBreakdownLevel = "county"
	LevelCity     RateBreakdownLevel = "city"
	LevelTownship RateBreakdownLevel = "township"
	LevelSpecial  RateBreakdownLevel = "special"
)

// JurisdictionRepository resolves ZIP codes to tax jurisdictions,
// point-in-time, and stores new/superseding rows.
type JurisdictionRepository interface {
	Resolve(zip string, asOfDate time.Time) (*Jurisdiction, error)
	Upsert(j *Jurisdiction) (*Jurisdiction, error)
}
