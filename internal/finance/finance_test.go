package finance

import (
	"testing"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

func TestCalculate_SixtyMonthsAPR(t *testing.T) {
	terms := domain.FinancingTerms{
		DownPayment: money.Zero(),
		APR:         money.MustRate("0.0499"),
		TermMonths:  60,
	}
	summary, err := Calculate(money.MustMoney("26600.00"), money.Zero(), money.Zero(), terms, money.Zero())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	got := summary.MonthlyPayment
	want := money.MustMoney("501.96")
	if !money.IsEqual(got, want, money.MustMoney("0.01")) {
		t.Errorf("monthlyPayment = %s, want ~501.96", got)
	}

	expectedTotalInterest := summary.MonthlyPayment.Mul(money.NewMoneyFromInt(60)).Sub(summary.AmountFinanced)
	if !money.IsEqual(summary.TotalInterest, expectedTotalInterest, money.Zero()) {
		t.Errorf("totalInterest = %s, want %s", summary.TotalInterest, expectedTotalInterest)
	}
}

func TestCalculate_ZeroAPR(t *testing.T) {
	terms := domain.FinancingTerms{APR: money.ZeroRate(), TermMonths: 48}
	summary, err := Calculate(money.MustMoney("24000.00"), money.Zero(), money.Zero(), terms, money.Zero())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	want := money.MustMoney("500.00")
	if summary.MonthlyPayment.String() != want.String() {
		t.Errorf("monthlyPayment = %s, want 500.00 (exact amountFinanced/term)", summary.MonthlyPayment)
	}
}

func TestCalculate_OneMonthTerm(t *testing.T) {
	terms := domain.FinancingTerms{APR: money.MustRate("0.12"), TermMonths: 1}
	amountFinanced := money.MustMoney("10000.00")
	summary, err := Calculate(amountFinanced, money.Zero(), money.Zero(), terms, money.Zero())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	r := money.MustRate("0.01") // 0.12/12
	want := amountFinanced.Add(amountFinanced.MulRate(r)).Round()
	if !money.IsEqual(summary.MonthlyPayment, want, money.MustMoney("0.01")) {
		t.Errorf("monthlyPayment = %s, want ~%s (amountFinanced * (1+r))", summary.MonthlyPayment, want)
	}
}

func TestCalculate_HighAPRWarning(t *testing.T) {
	terms := domain.FinancingTerms{APR: money.MustRate("0.30"), TermMonths: 60}
	summary, err := Calculate(money.MustMoney("20000.00"), money.Zero(), money.Zero(), terms, money.Zero())
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if len(summary.Warnings) == 0 {
		t.Error("expected a warning for APR above the advisory threshold")
	}
}

func TestCalculate_RejectsZeroTerm(t *testing.T) {
	terms := domain.FinancingTerms{APR: money.MustRate("0.05"), TermMonths: 0}
	_, err := Calculate(money.MustMoney("10000.00"), money.Zero(), money.Zero(), terms, money.Zero())
	if err == nil {
		t.Fatal("expected an error for zero term months")
	}
}
