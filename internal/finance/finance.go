// Package finance implements the Finance Calculator (C5): amortized
// retail-installment payments, generalizing the teacher's simple-add-on
// loan formula into a true reducing-balance amortization, since retail
// vehicle financing is never simple interest.
package finance

import (
	"fmt"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

// maxSaneAPR, maxSaneTermMonths and maxSaneLTV bound the values above which Calculate still
// succeeds but returns an advisory Warning rather than failing — the spec
// treats these as business judgment calls, not hard errors.
var maxSaneAPR = money.MustRate("0.25")

const maxSaneTermMonths = 84
const maxSaneLTV = 1.40

// Calculate derives the amount financed and the amortized monthly payment
// for a retail deal. cashPrice is the post-tax, post-fee price the
// customer owes; netTradeIn (trade equity, not the raw allowance), the down
// payment and manufacturerRebateFinanced are each subtracted from it, so a
// caller whose cashPrice already nets the trade-in or a rebate passes zero
// for that argument.
func Calculate(cashPrice, netTradeIn, manufacturerRebateFinanced money.Money, terms domain.FinancingTerms, vehicleCost money.Money) (*domain.AmortizationSummary, error) {
	if terms.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: term months must be positive", domain.ErrInvalidInput)
	}

	amountFinanced := money.MinZero(cashPrice.Sub(netTradeIn).Sub(terms.DownPayment).Sub(manufacturerRebateFinanced))

	payment, err := monthlyPayment(amountFinanced, terms.APR, terms.TermMonths)
	if err != nil {
		return nil, err
	}
	payment = payment.Round()

	totalOfPayments := payment.Mul(money.NewMoneyFromInt(int64(terms.TermMonths)))
	totalInterest := totalOfPayments.Sub(amountFinanced)

	var warnings []string
	if terms.APR.Decimal().GreaterThan(maxSaneAPR.Decimal()) {
		warnings = append(warnings, fmt.Sprintf("APR %s exceeds the 25%% advisory threshold", terms.APR))
	}
	if terms.TermMonths > maxSaneTermMonths {
		warnings = append(warnings, fmt.Sprintf("term of %d months exceeds the 84-month advisory threshold", terms.TermMonths))
	}
	if !vehicleCost.IsZero() {
		ltv, _ := amountFinanced.Div(vehicleCost)
		if ltv.Decimal().GreaterThan(money.MustMoney(fmt.Sprintf("%.2f", maxSaneLTV)).Decimal()) {
			warnings = append(warnings, "loan-to-value exceeds the 140% advisory threshold")
		}
	}

	return &domain.AmortizationSummary{
		AmountFinanced:  amountFinanced,
		MonthlyPayment:  payment,
		TermMonths:      terms.TermMonths,
		TotalOfPayments: totalOfPayments,
		TotalInterest:   totalInterest,
		Warnings:        warnings,
	}, nil
}

// monthlyPayment computes the standard amortized payment
// P = A*r*(1+r)^n / ((1+r)^n - 1), with r = apr/12 special-cased to A/n
// when r is zero (a zero-rate promotional deal is still a valid input).
func monthlyPayment(amountFinanced money.Money, apr money.Rate, termMonths int) (money.Money, error) {
	monthlyRate, err := money.FromDecimal(apr.Decimal()).DivInt(12)
	if err != nil {
		return money.Money{}, err
	}

	if monthlyRate.IsZero() {
		return amountFinanced.DivInt(int64(termMonths))
	}

	onePlusR := monthlyRate.Add(money.NewMoneyFromInt(1))
	factor := onePlusR.Pow(int64(termMonths))

	numerator := amountFinanced.Mul(monthlyRate).Mul(factor)
	denominator := factor.Sub(money.NewMoneyFromInt(1))

	return numerator.Div(denominator)
}
