// Package quote implements the Deal Aggregator (C7): the pure orchestration
// function that ties the Tax Computation Engine, Finance Calculator, and
// Lease Calculator together into one ComputedQuote. It performs no I/O and
// has no side effects — it is called identically from HTTP handlers, the
// Atomic Deal Lifecycle Manager, and tests.
package quote

import (
	"fmt"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/finance"
	"github.com/dafibh/dealdesk-backend/internal/lease"
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/dafibh/dealdesk-backend/internal/tax"
)

// vehicleCost is threaded through for profit computation and LTV
// warnings; it is not part of DealInput because it is dealer-internal
// (never shown to the customer) and supplied by the caller from the
// Vehicle record rather than the deal form.
type Inputs struct {
	Deal         domain.DealInput
	Jurisdiction *domain.Jurisdiction
	StateRules   *domain.StateRules
	VehicleCost  money.Money
	Profile      tax.RoundingProfile
}

// ComputeQuote validates nothing itself (that is C10's job, run upstream by
// the caller) and assumes Jurisdiction/StateRules have already been
// resolved for Inputs.Deal.ZipCode/StateCode/AsOfDate.
func ComputeQuote(in Inputs) (*domain.ComputedQuote, error) {
	d := in.Deal

	taxResult, err := tax.Compute(d, in.Jurisdiction, in.StateRules, in.Profile)
	if err != nil {
		return nil, err
	}

	totalFees := feesTotal(d.Fees)
	totalProducts := productsTotal(d.Products)
	totalProductCost := productsCost(d.Products)

	saleBase := d.VehiclePrice.Sub(d.DealerDiscount)
	netTradeIn := tradeCreditFor(d, in.StateRules)

	// A rebate always reduces cash owed, even when the state taxes it (the
	// tax engine's step1SaleBase already handled the separate, conditional
	// reduction of the taxABLE base). This is unconditional.
	rebates := d.ManufacturerRebate.Add(d.DealerRebate)
	cashSaleBase := money.MinZero(saleBase.Sub(rebates))

	cashPrice := money.MinZero(cashSaleBase.Sub(netTradeIn)).
		Add(totalFees).
		Add(totalProducts).
		Add(d.AccessoriesTotal).
		Add(taxResult.TotalTax)

	quote := &domain.ComputedQuote{
		SaleBase:          saleBase,
		NetTradeIn:        netTradeIn,
		TaxableAmount:     taxResult.TaxableAmount,
		TaxBreakdown:      taxResult.Breakdown,
		TotalTax:          taxResult.TotalTax,
		TotalFees:         totalFees,
		TotalProducts:     totalProducts,
		CashPrice:         cashPrice,
		ReciprocityCredit: taxResult.ReciprocityCredit,
		AppliedRules:      taxResult.AppliedRules,
	}

	switch d.DealType {
	case domain.DealTypeRetail:
		if d.Financing == nil {
			return nil, fmt.Errorf("%w: retail deal requires financing terms", domain.ErrInvalidInput)
		}
		// cashPrice already nets the trade-in and both rebates, so zero is
		// passed for Calculate's trade-in and rebate arguments.
		summary, err := finance.Calculate(cashPrice, money.Zero(), money.Zero(), *d.Financing, in.VehicleCost)
		if err != nil {
			return nil, err
		}
		quote.Amortization = summary
		quote.AmountFinanced = summary.AmountFinanced
		quote.MonthlyPayment = summary.MonthlyPayment

	case domain.DealTypeLease:
		if d.Leasing == nil {
			return nil, fmt.Errorf("%w: lease deal requires leasing terms", domain.ErrInvalidInput)
		}
		upfrontTax, monthlyTax := leaseTaxSplit(in.StateRules.LeaseMethod, taxResult.TotalTax)
		// Cap reduction = cashDown (inside lease.Calculate) + manufacturer
		// rebates applied to cap + net trade equity; dealer rebates are not
		// capitalized, only manufacturer rebates are (spec's cap-reduction
		// formula names "manufacturer rebates applied to cap" specifically).
		capReductionCredit := netTradeIn.Add(d.ManufacturerRebate)
		summary, err := lease.Calculate(*d.Leasing, money.Zero(), capReductionCredit, upfrontTax, monthlyTax, in.StateRules.LeaseMethod)
		if err != nil {
			return nil, err
		}
		quote.Lease = summary
		quote.MonthlyPayment = summary.MonthlyPayment

	case domain.DealTypeCash:
		// No financing/lease calculation; cashPrice above is the full
		// amount due.
	default:
		return nil, fmt.Errorf("%w: unknown deal type %q", domain.ErrInvalidInput, d.DealType)
	}

	quote.Profit = computeProfit(saleBase, in.VehicleCost, totalProducts, totalProductCost)
	quote.OutTheDoor = cashPrice

	return quote, nil
}

func feesTotal(fees []domain.FeeLine) money.Money {
	total := money.Zero()
	for _, f := range fees {
		total = total.Add(f.Amount)
	}
	return total
}

func productsTotal(products []domain.ProductLine) money.Money {
	total := money.Zero()
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}

func productsCost(products []domain.ProductLine) money.Money {
	total := money.Zero()
	for _, p := range products {
		total = total.Add(p.Cost)
	}
	return total
}

// tradeCreditFor mirrors the tax engine's step 2 trade-in credit
// calculation, used here (outside the tax engine) to net the trade-in
// against cash price and amount financed/cap-reduction.
func tradeCreditFor(d domain.DealInput, rules *domain.StateRules) money.Money {
	policy := rules.TradeInPolicy
	if d.DealType == domain.DealTypeLease {
		policy = rules.LeaseRules.TradeInCredit
	}
	switch policy.Kind {
	case domain.TradeInFull:
		return d.TradeAllowance
	case domain.TradeInCapped:
		return money.ApplyCap(d.TradeAllowance, policy.Cap)
	case domain.TradeInPercent:
		return money.ApplyPercent(d.TradeAllowance, policy.Percent)
	default:
		return money.Zero()
	}
}

// leaseTaxSplit routes the tax engine's computed total into the
// upfront-due-at-signing bucket or the monthly-payment bucket, depending
// on the state's lease tax method. MONTHLY states tax each payment as it's
// made rather than the capitalized cost at signing, but the taxable base
// is still the one the tax engine resolved (local rate x taxable amount);
// this engine does not re-derive a separate per-payment taxable base.
func leaseTaxSplit(method domain.LeaseTaxMethod, totalTax money.Money) (upfront, monthly money.Money) {
	if method == domain.LeaseMethodMonthly {
		return money.Zero(), totalTax
	}
	return totalTax, money.Zero()
}

func computeProfit(saleBase, vehicleCost, productsRevenue, productsCost money.Money) domain.ProfitSummary {
	front := saleBase.Sub(vehicleCost)
	back := productsRevenue.Sub(productsCost)
	return domain.ProfitSummary{
		Front: front,
		Back:  back,
		Total: front.Add(back),
	}
}
