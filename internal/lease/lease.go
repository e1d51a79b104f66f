// Package lease implements the Lease Calculator (C6): capitalized cost,
// residual, money-factor rent charge, and the four lease tax-method
// treatments spec §4.6 requires.
package lease

import (
	"fmt"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

// moneyFactorToAPRMultiplier converts a money factor to an equivalent APR:
// apr = mf * 2400.
var moneyFactorToAPRMultiplier = money.NewMoneyFromInt(2400)

// Calculate derives the full lease payment structure for one Scenario.
// netTradeEquity is the cap-reduction credit from trade-in and manufacturer
// rebates (dealer rebates are never capitalized into a lease); upfrontTax/
// monthlyTax come from the Tax Computation Engine per the deal's leaseMethod,
// keeping this package free of tax-rule logic.
func Calculate(terms domain.LeasingTerms, capitalizedFees, netTradeEquity, upfrontTax, monthlyTax money.Money, method domain.LeaseTaxMethod) (*domain.LeaseSummary, error) {
	if terms.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term months must be positive", domain.ErrInvalidInput)
	}

	grossCapCost := terms.SellingPrice.Add(terms.AcquisitionFee).Add(capitalizedFees)
	capReduction := terms.CashDown.Add(netTradeEquity)
	adjustedCapCost := money.MinZero(grossCapCost.Sub(capReduction))

	residual := terms.MSRP.MulRate(terms.ResidualPercent)

	depreciationPerMonth, err := adjustedCapCost.Sub(residual).DivInt(int64(terms.TermMonths))
	if err != nil {
		return nil, err
	}

	rentChargePerMonth := adjustedCapCost.Add(residual).MulRate(terms.MoneyFactor)

	basePayment := depreciationPerMonth.Add(rentChargePerMonth).Round()

	var monthlyPayment money.Money
	var driveOffExtra money.Money

	switch method {
	case domain.LeaseMethodMonthly:
		monthlyPayment = basePayment.Add(monthlyTax).Round()
	case domain.LeaseMethodUpfrontOnSellingPrice, domain.LeaseMethodUpfrontOnPayments, domain.LeaseMethodCapReductionTaxed:
		monthlyPayment = basePayment
		driveOffExtra = upfrontTax
	case domain.LeaseMethodOnePay:
		totalOfPayments := basePayment.Mul(money.NewMoneyFromInt(int64(terms.TermMonths)))
		monthlyPayment = totalOfPayments.Add(upfrontTax)
	default:
		return nil, fmt.Errorf("%w: unknown lease tax method %q", domain.ErrInvalidInput, method)
	}

	driveOff := terms.CashDown.Add(basePayment).Add(driveOffExtra)
	if method == domain.LeaseMethodMonthly {
		driveOff = terms.CashDown.Add(monthlyPayment)
	}

	equivalentAPR := money.RateFromDecimal(terms.MoneyFactor.Decimal().Mul(moneyFactorToAPRMultiplier.Decimal()))

	var warnings []string
	if terms.TermMonths > 48 {
		warnings = append(warnings, "lease term exceeds the 48-month advisory threshold")
	}

	return &domain.LeaseSummary{
		GrossCapCost:         grossCapCost,
		CapReduction:         capReduction,
		AdjustedCapCost:      adjustedCapCost,
		Residual:             residual,
		DepreciationPerMonth: depreciationPerMonth.Round(),
		RentChargePerMonth:   rentChargePerMonth.Round(),
		BasePayment:          basePayment,
		MonthlyPayment:       monthlyPayment,
		DriveOff:             driveOff,
		EquivalentAPR:        equivalentAPR,
		Warnings:             warnings,
	}, nil
}

// APRFromMoneyFactor converts a money factor to its equivalent APR.
func APRFromMoneyFactor(mf money.Rate) money.Rate {
	return money.RateFromDecimal(mf.Decimal().Mul(moneyFactorToAPRMultiplier.Decimal()))
}

// MoneyFactorFromAPR converts an APR to its equivalent money factor.
func MoneyFactorFromAPR(apr money.Rate) money.Rate {
	return money.RateFromDecimal(apr.Decimal().Div(moneyFactorToAPRMultiplier.Decimal()))
}
