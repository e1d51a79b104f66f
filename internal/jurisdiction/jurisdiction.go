// Package jurisdiction implements the Jurisdiction Resolver (C2): ZIP code
// to tax-rate-vector resolution, point-in-time.
package jurisdiction

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// maxSaneTotalRate is the bound above which a resolved total rate is still
// honored but flagged with a warning — real combined rates in the
// continental US do not exceed this.
var maxSaneTotalRate = money.MustRate("0.15")

// Resolver resolves ZIP codes to Jurisdiction rows, backed by
// domain.JurisdictionRepository.
type Resolver struct {
	repo domain.JurisdictionRepository
}

// NewResolver constructs a Resolver over the given repository.
func NewResolver(repo domain.JurisdictionRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the Jurisdiction row whose [EffectiveDate, EndDate) span
// covers asOfDate for the given ZIP. The five-digit form of the ZIP is
// used for lookup even when a ZIP+4 is supplied.
func (r *Resolver) Resolve(zip string, asOfDate time.Time) (*domain.Jurisdiction, error) {
	if !zipPattern.MatchString(zip) {
		return nil, fmt.Errorf("%w: malformed zip %q", domain.ErrInvalidInput, zip)
	}
	fiveDigit := zip[:5]

	j, err := r.repo.Resolve(fiveDigit, asOfDate)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrJurisdictionNotFound, zip)
	}
	return j, nil
}

// RateBreakdown is the resolved rate vector plus any advisory warnings.
type RateBreakdown struct {
	Lines    []domain.TaxBreakdownLine
	Total    money.Rate
	Warnings []string
}

// GetRates projects a Jurisdiction's rate vector into an unrounded
// RateBreakdown. A total rate above 15% is still returned, with a warning
// rather than a failure — jurisdictions genuinely vary this widely in rare
// cases and the engine does not second-guess the data.
func GetRates(j *domain.Jurisdiction) RateBreakdown {
	lines := []domain.TaxBreakdownLine{
		{Level: domain.LevelState, Rate: j.StateRate},
		{Level: domain.LevelCounty, Rate: j.CountyRate},
		{Level: domain.LevelCity, Rate: j.CityRate},
		{Level: domain.LevelTownship, Rate: j.TownshipRate},
		{Level: domain.LevelSpecial, Rate: j.SpecialRate},
	}
	total := j.TotalRate()

	var warnings []string
	if total.Decimal().GreaterThan(maxSaneTotalRate.Decimal()) {
		warnings = append(warnings, fmt.Sprintf("combined rate %s exceeds the 15%% sanity bound", total))
	}

	return RateBreakdown{Lines: lines, Total: total, Warnings: warnings}
}
