// Package tax implements the Tax Computation Engine (C4): taxable-base
// derivation, jurisdictional breakdown, special vehicle-tax schemes, and
// interstate reciprocity, in the fixed seven-step order the spec requires.
package tax

import (
	"fmt"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

// RoundingProfile names the convention used to derive a total tax amount
// from a per-level breakdown. Both are implemented. The caller passes one
// to each Compute call; it is not pinned per state, and
// internal/config.Config.RoundingProfile is not read. The profile used is
// always recorded in Result.AppliedRules so a reference-system mismatch is
// diagnosable.
type RoundingProfile string

const (
	// SumThenRound rounds each breakdown line to 2dp, then sums the
	// rounded lines to produce the total.
	SumThenRound RoundingProfile = "SumThenRound"

	// RoundThenSum sums the unrounded per-level products first, then
	// rounds once at the end.
	RoundThenSum RoundingProfile = "RoundThenSum"
)

// breakdownTolerance is the ±$0.01 sanity bound spec §8 requires between a
// breakdown's line sum and its reported total.
var breakdownTolerance = money.MustMoney("0.01")

// luxuryThreshold is the taxable-amount floor above which a
// STATE_PLUS_LOCAL scheme additionally surfaces a "luxury vehicle" advisory
// note (e.g. CA's $100,000 tax rate threshold for vehicles). It does not
// change the computed rate — California's luxury surcharge is carried at
// the jurisdiction-rate level — only the advisory record in AppliedRules.
var luxuryThreshold = money.MustMoney("100000.00")

// Result is the full output of Compute: the taxable base derivation, the
// per-level breakdown, and every rule that was applied, for the audit
// ledger to carry forward verbatim.
type Result struct {
	TaxableAmount     money.Money
	Breakdown         []domain.TaxBreakdownLine
	TotalTax          money.Money
	ReciprocityCredit money.Money
	AppliedRules      []string
}

// Compute derives the tax outcome for one deal, given its resolved
// Jurisdiction and StateRules, following spec §4.4 steps 1-7 in order.
func Compute(input domain.DealInput, j *domain.Jurisdiction, rules *domain.StateRules, profile RoundingProfile) (Result, error) {
	var applied []string

	saleBase, creditedDealerRebate, creditedMfrRebate := step1SaleBase(input, rules)

	tradeCredit, negativeEquityAdd := step2TradeInCredit(input, rules)

	taxableAmount, err := step3TaxableAmount(input, rules, saleBase, tradeCredit, negativeEquityAdd)
	if err != nil {
		return Result{}, err
	}

	breakdown, totalTax, err := step4Breakdown(taxableAmount, j, profile)
	if err != nil {
		return Result{}, err
	}

	breakdown, totalTax, schemeNote := step5SpecialSchemes(taxableAmount, rules, breakdown, totalTax, j)
	if schemeNote != "" {
		applied = append(applied, schemeNote)
	}

	reciprocityCredit, reciprocityNote := step6Reciprocity(input, rules, totalTax)
	totalTax = money.MinZero(totalTax.Sub(reciprocityCredit))
	if reciprocityNote != "" {
		applied = append(applied, reciprocityNote)
	}

	if err := verifyBreakdown(breakdown, totalTax, reciprocityCredit); err != nil {
		return Result{}, err
	}

	if creditedDealerRebate {
		applied = append(applied, "dealer rebate reduced taxable base")
	}
	if creditedMfrRebate {
		applied = append(applied, "manufacturer rebate reduced taxable base")
	}
	applied = append(applied, fmt.Sprintf("rounding profile: %s", profile))

	return Result{
		TaxableAmount:     taxableAmount,
		Breakdown:         breakdown,
		TotalTax:          totalTax,
		ReciprocityCredit: reciprocityCredit,
		AppliedRules:      applied,
	}, nil
}

// step1SaleBase computes saleBase = vehiclePrice - dealerDiscount, then
// applies rebates to the base only when the state rule marks them
// non-taxable; otherwise they reduce cash owed but not the taxable base.
func step1SaleBase(input domain.DealInput, rules *domain.StateRules) (saleBase money.Money, creditedDealerRebate, creditedMfrRebate bool) {
	saleBase = input.VehiclePrice.Sub(input.DealerDiscount)

	if !rules.DealerRebateTaxable {
		saleBase = saleBase.Sub(input.DealerRebate)
		creditedDealerRebate = true
	}
	if !rules.ManufacturerRebateTaxable {
		saleBase = saleBase.Sub(input.ManufacturerRebate)
		creditedMfrRebate = true
	}
	return saleBase, creditedDealerRebate, creditedMfrRebate
}

// step2TradeInCredit derives the trade-in tax credit and any negative
// equity to be added back to the taxable base. Leases always use
// leaseRules.tradeInCredit, never the retail TradeInPolicy, per Open
// Question (c).
func step2TradeInCredit(input domain.DealInput, rules *domain.StateRules) (credit money.Money, negativeEquity money.Money) {
	policy := rules.TradeInPolicy
	if input.DealType == domain.DealTypeLease {
		policy = rules.LeaseRules.TradeInCredit
	}

	switch policy.Kind {
	case domain.TradeInFull:
		credit = input.TradeAllowance
	case domain.TradeInCapped:
		credit = money.ApplyCap(input.TradeAllowance, policy.Cap)
	case domain.TradeInPercent:
		credit = money.ApplyPercent(input.TradeAllowance, policy.Percent)
	case domain.TradeInNone:
		credit = money.Zero()
	}

	if input.TradePayoff.GreaterThan(input.TradeAllowance) && rules.NegativeEquityTaxable {
		negativeEquity = input.TradePayoff.Sub(input.TradeAllowance)
	}
	return credit, negativeEquity
}

// step3TaxableAmount assembles the taxable base: net of sale base minus
// trade credit (floored at zero), plus every taxable add-on governed by
// its own per-item rule.
func step3TaxableAmount(input domain.DealInput, rules *domain.StateRules, saleBase, tradeCredit, negativeEquity money.Money) (money.Money, error) {
	net := money.MinZero(saleBase.Sub(tradeCredit))
	net = net.Add(negativeEquity)

	for _, fee := range input.Fees {
		if !fee.Taxable {
			continue
		}
		net = net.Add(fee.Amount)
	}

	for _, product := range input.Products {
		if !productTaxable(product.Category, rules) {
			continue
		}
		net = net.Add(product.Price)
	}

	if rules.AccessoriesTaxable {
		net = net.Add(input.AccessoriesTotal)
	}

	if rules.DocFeeTaxable {
		docFee := docFeeOf(input)
		if rules.DocFeeCap != nil {
			docFee = money.ApplyCap(docFee, *rules.DocFeeCap)
		}
		net = net.Add(docFee)
	}

	if net.IsNegative() {
		return money.Money{}, fmt.Errorf("%w: taxable amount is negative", domain.ErrArithmetic)
	}
	return net, nil
}

// docFeeOf extracts the "doc" coded fee line, if present, else zero. Doc
// fee taxability/cap is handled by the caller; the fee amount itself
// always comes from the deal's fee lines.
func docFeeOf(input domain.DealInput) money.Money {
	for _, fee := range input.Fees {
		if fee.Code == "doc" {
			return fee.Amount
		}
	}
	return money.Zero()
}

func productTaxable(category domain.ProductCategory, rules *domain.StateRules) bool {
	switch category {
	case domain.ProductGap:
		return rules.GapTaxable
	case domain.ProductWarranty, domain.ProductMaintenance, domain.ProductTireWheel, domain.ProductPaintProtection:
		return rules.ServiceContractTaxable
	default:
		return rules.ServiceContractTaxable
	}
}

// step4Breakdown computes the per-level tax amounts and a total, honoring
// the requested RoundingProfile.
func step4Breakdown(taxableAmount money.Money, j *domain.Jurisdiction, profile RoundingProfile) ([]domain.TaxBreakdownLine, money.Money, error) {
	levels := []struct {
		level domain.RateBreakdownLevel
		rate  money.Rate
	}{
		{domain.LevelState, j.StateRate},
		{domain.LevelCounty, j.CountyRate},
		{domain.LevelCity, j.CityRate},
		{domain.LevelTownship, j.TownshipRate},
		{domain.LevelSpecial, j.SpecialRate},
	}

	breakdown := make([]domain.TaxBreakdownLine, 0, len(levels))
	var total money.Money
	var unroundedTotal money.Money

	for _, lv := range levels {
		raw := taxableAmount.MulRate(lv.rate)
		unroundedTotal = unroundedTotal.Add(raw)

		amount := raw
		if profile == SumThenRound {
			amount = raw.Round()
		}
		breakdown = append(breakdown, domain.TaxBreakdownLine{Level: lv.level, Rate: lv.rate, Amount: amount.Round()})
		total = total.Add(amount)
	}

	switch profile {
	case SumThenRound:
		total = total.Round()
	case RoundThenSum:
		total = unroundedTotal.Round()
	default:
		return nil, money.Money{}, fmt.Errorf("%w: unknown rounding profile %q", domain.ErrInvalidInput, profile)
	}

	return breakdown, total, nil
}

// step5SpecialSchemes replaces the state-level component with a special
// vehicle tax scheme's own formula, when one applies. Local components
// still apply if the state says vehicles use local sales tax alongside
// the scheme.
func step5SpecialSchemes(taxableAmount money.Money, rules *domain.StateRules, breakdown []domain.TaxBreakdownLine, total money.Money, j *domain.Jurisdiction) ([]domain.TaxBreakdownLine, money.Money, string) {
	if rules.VehicleTaxScheme == domain.SchemeStatePlusLocal {
		if taxableAmount.GreaterThan(luxuryThreshold) {
			return breakdown, total, "Luxury vehicle tax applied"
		}
		return breakdown, total, ""
	}

	var note string
	var schemeAmount money.Money
	switch rules.VehicleTaxScheme {
	case domain.SchemeSpecialTAVT:
		schemeAmount = taxableAmount.MulRate(j.StateRate).Round()
		note = "TAVT applied in lieu of standard sales tax"
	case domain.SchemeSpecialHUT:
		schemeAmount = taxableAmount.MulRate(j.StateRate).Round()
		note = "Highway Use Tax applied in lieu of standard sales tax"
	case domain.SchemeDMVPrivilegeTax:
		schemeAmount = taxableAmount.MulRate(j.StateRate).Round()
		note = "DMV privilege tax applied in lieu of standard sales tax"
	}

	localTotal := money.Zero()
	newBreakdown := make([]domain.TaxBreakdownLine, 0, len(breakdown))
	for _, line := range breakdown {
		if line.Level == domain.LevelState {
			newBreakdown = append(newBreakdown, domain.TaxBreakdownLine{Level: line.Level, Rate: line.Rate, Amount: schemeAmount})
			continue
		}
		if rules.VehicleUsesLocalSalesTax {
			newBreakdown = append(newBreakdown, line)
			localTotal = localTotal.Add(line.Amount)
		}
	}

	return newBreakdown, schemeAmount.Add(localTotal), note
}

// step6Reciprocity computes the credit for tax already paid in another
// jurisdiction, per spec §4.4 step 6.
func step6Reciprocity(input domain.DealInput, rules *domain.StateRules, thisStatesTax money.Money) (money.Money, string) {
	if !rules.Reciprocity.Enabled || input.OriginTaxInfo == nil {
		return money.Zero(), ""
	}
	if input.OriginTaxInfo.Amount.IsZero() || !input.OriginTaxInfo.Amount.GreaterThan(money.Zero()) {
		return money.Zero(), ""
	}

	inScope := rules.Reciprocity.Scope == domain.ReciprocityBoth ||
		(rules.Reciprocity.Scope == domain.ReciprocityRetailOnly && input.DealType == domain.DealTypeRetail)
	if !inScope {
		return money.Zero(), ""
	}

	if rules.Reciprocity.TimeWindowDays != nil {
		elapsedDays := int(input.AsOfDate.Sub(input.OriginTaxInfo.TaxPaidDate).Hours() / 24)
		if elapsedDays > *rules.Reciprocity.TimeWindowDays {
			return money.Zero(), ""
		}
	}

	origin := input.OriginTaxInfo.Amount

	var credit money.Money
	switch rules.Reciprocity.HomeStateBehavior {
	case domain.CreditUpToStateRate:
		credit = money.Min(origin, thisStatesTax)
	case domain.CreditFull:
		credit = origin
	case domain.CreditNone:
		credit = money.Zero()
	}

	note := ""
	if rules.Reciprocity.RequireProof {
		note = "reciprocity applied; proof of origin-state tax payment required"
	}
	return credit, note
}

// verifyBreakdown enforces the ±$0.01 sanity guard between the sum of a
// breakdown's lines (before any reciprocity credit) and its reported
// pre-credit total; never silently truncates a mismatch.
func verifyBreakdown(breakdown []domain.TaxBreakdownLine, totalAfterCredit, reciprocityCredit money.Money) error {
	sum := money.Zero()
	for _, line := range breakdown {
		sum = sum.Add(line.Amount)
	}
	totalBeforeCredit := totalAfterCredit.Add(reciprocityCredit)
	if !money.IsEqual(sum, totalBeforeCredit, breakdownTolerance) {
		return fmt.Errorf("%w: breakdown sums to %s, total is %s", domain.ErrBreakdownMismatch, sum, totalBeforeCredit)
	}
	return nil
}
