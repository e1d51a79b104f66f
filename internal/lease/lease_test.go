package lease

import (
	"testing"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

func TestCalculate_ThirtySixMonthMonthlyTax(t *testing.T) {
	terms := domain.LeasingTerms{
		MSRP:            money.MustMoney("45000.00"),
		SellingPrice:    money.MustMoney("45000.00"),
		TermMonths:      36,
		MoneyFactor:     money.MustRate("0.00125"),
		ResidualPercent: money.MustRate("0.60"),
		CashDown:        money.Zero(),
		AcquisitionFee:  money.Zero(),
	}

	summary, err := Calculate(terms, money.Zero(), money.Zero(), money.Zero(), money.Zero(), domain.LeaseMethodMonthly)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if summary.DepreciationPerMonth.String() != "500.00" {
		t.Errorf("depreciationPerMonth = %s, want 500.00", summary.DepreciationPerMonth)
	}
	if summary.RentChargePerMonth.String() != "90.00" {
		t.Errorf("rentChargePerMonth = %s, want 90.00", summary.RentChargePerMonth)
	}
	if summary.BasePayment.String() != "590.00" {
		t.Errorf("basePayment = %s, want 590.00", summary.BasePayment)
	}
	if summary.MonthlyPayment.String() != "590.00" {
		t.Errorf("monthlyPayment = %s, want 590.00", summary.MonthlyPayment)
	}
}

func TestAPRFromMoneyFactor_RoundTrip(t *testing.T) {
	mf := money.MustRate("0.00125")
	apr := APRFromMoneyFactor(mf)
	back := MoneyFactorFromAPR(apr)
	if !money.IsEqual(money.FromDecimal(back.Decimal()), money.FromDecimal(mf.Decimal()), money.MustMoney("0.000001")) {
		t.Errorf("money factor round-trip mismatch: %s != %s", back, mf)
	}
}

func TestCalculate_UpfrontMethodAddsDriveOffTax(t *testing.T) {
	terms := domain.LeasingTerms{
		MSRP:            money.MustMoney("30000.00"),
		SellingPrice:    money.MustMoney("30000.00"),
		TermMonths:      36,
		MoneyFactor:     money.MustRate("0.001"),
		ResidualPercent: money.MustRate("0.55"),
		CashDown:        money.MustMoney("2000.00"),
		AcquisitionFee:  money.MustMoney("595.00"),
	}
	upfrontTax := money.MustMoney("1800.00")

	summary, err := Calculate(terms, money.Zero(), money.Zero(), upfrontTax, money.Zero(), domain.LeaseMethodUpfrontOnSellingPrice)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	want := terms.CashDown.Add(summary.BasePayment).Add(upfrontTax)
	if summary.DriveOff.String() != want.String() {
		t.Errorf("driveOff = %s, want %s", summary.DriveOff, want)
	}
}

func TestCalculate_RejectsZeroTerm(t *testing.T) {
	terms := domain.LeasingTerms{TermMonths: 0}
	_, err := Calculate(terms, money.Zero(), money.Zero(), money.Zero(), money.Zero(), domain.LeaseMethodMonthly)
	if err == nil {
		t.Fatal("expected an error for zero term months")
	}
}
