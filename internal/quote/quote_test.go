package quote

import (
	"testing"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/dafibh/dealdesk-backend/internal/staterules"
	"github.com/dafibh/dealdesk-backend/internal/tax"
)

func TestComputeQuote_RetailDeterministic(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, err := store.Get("TX", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.0625")}

	dealInput := domain.DealInput{
		VehiclePrice:   money.MustMoney("30000.00"),
		TradeAllowance: money.MustMoney("10000.00"),
		ZipCode:        "75201",
		StateCode:      "TX",
		AsOfDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DealType:       domain.DealTypeRetail,
		Financing: &domain.FinancingTerms{
			APR:        money.MustRate("0.0499"),
			TermMonths: 60,
		},
	}

	in := Inputs{Deal: dealInput, Jurisdiction: j, StateRules: rules, VehicleCost: money.MustMoney("25000.00"), Profile: tax.SumThenRound}

	q1, err := ComputeQuote(in)
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}
	q2, err := ComputeQuote(in)
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}

	if q1.TotalTax.String() != q2.TotalTax.String() || q1.MonthlyPayment.String() != q2.MonthlyPayment.String() {
		t.Error("ComputeQuote is not deterministic across identical calls")
	}
	if q1.TotalTax.String() != "1250.00" {
		t.Errorf("totalTax = %s, want 1250.00", q1.TotalTax)
	}
	if q1.Amortization == nil {
		t.Fatal("expected an amortization summary for a retail deal")
	}
}

func TestComputeQuote_RequiresFinancingForRetail(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, _ := store.Get("TX", time.Now())
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.0625")}

	dealInput := domain.DealInput{
		VehiclePrice: money.MustMoney("30000.00"),
		StateCode:    "TX",
		AsOfDate:     time.Now(),
		DealType:     domain.DealTypeRetail,
	}
	_, err := ComputeQuote(Inputs{Deal: dealInput, Jurisdiction: j, StateRules: rules, Profile: tax.SumThenRound})
	if err == nil {
		t.Fatal("expected an error when financing terms are missing for a retail deal")
	}
}

func TestComputeQuote_CashDealSkipsFinanceAndLease(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, _ := store.Get("TX", time.Now())
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.0625")}

	dealInput := domain.DealInput{
		VehiclePrice: money.MustMoney("20000.00"),
		StateCode:    "TX",
		AsOfDate:     time.Now(),
		DealType:     domain.DealTypeCash,
	}
	q, err := ComputeQuote(Inputs{Deal: dealInput, Jurisdiction: j, StateRules: rules, Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}
	if q.Amortization != nil || q.Lease != nil {
		t.Error("expected no amortization or lease summary for a cash deal")
	}
}

// TestComputeQuote_RebateAlwaysReducesCashOwed mirrors the spec's literal
// WI scenario: a taxable manufacturer rebate still reduces cash owed even
// though it does not shrink the taxable base.
func TestComputeQuote_RebateAlwaysReducesCashOwed(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, err := store.Get("WI", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.055")}

	base := domain.DealInput{
		VehiclePrice: money.MustMoney("35000.00"),
		ZipCode:      "53201",
		StateCode:    "WI",
		AsOfDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DealType:     domain.DealTypeCash,
	}
	withRebate := base
	withRebate.ManufacturerRebate = money.MustMoney("5000.00")

	noRebateQuote, err := ComputeQuote(Inputs{Deal: base, Jurisdiction: j, StateRules: rules, Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}
	rebateQuote, err := ComputeQuote(Inputs{Deal: withRebate, Jurisdiction: j, StateRules: rules, Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}

	if rebateQuote.TaxableAmount.String() != noRebateQuote.TaxableAmount.String() {
		t.Errorf("taxable amount changed with a taxable rebate: got %s, want unchanged %s", rebateQuote.TaxableAmount, noRebateQuote.TaxableAmount)
	}
	if rebateQuote.TotalTax.String() != "1925.00" {
		t.Errorf("totalTax = %s, want 1925.00", rebateQuote.TotalTax)
	}

	wantCashPrice := noRebateQuote.CashPrice.Sub(money.MustMoney("5000.00"))
	if rebateQuote.CashPrice.String() != wantCashPrice.String() {
		t.Errorf("cashPrice = %s, want %s (rebate not applied to cash owed)", rebateQuote.CashPrice, wantCashPrice)
	}
	if rebateQuote.OutTheDoor.String() != rebateQuote.CashPrice.String() {
		t.Errorf("outTheDoor = %s, want it to equal cashPrice %s for a cash deal", rebateQuote.OutTheDoor, rebateQuote.CashPrice)
	}
}

// TestComputeQuote_ManufacturerRebateReducesAmountFinanced checks the
// rebate also flows into the Finance Calculator's amount-financed formula
// instead of being discarded.
func TestComputeQuote_ManufacturerRebateReducesAmountFinanced(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, err := store.Get("TX", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.0625")}

	dealInput := domain.DealInput{
		VehiclePrice:       money.MustMoney("30000.00"),
		ManufacturerRebate: money.MustMoney("2000.00"),
		ZipCode:            "75201",
		StateCode:          "TX",
		AsOfDate:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DealType:           domain.DealTypeRetail,
		Financing: &domain.FinancingTerms{
			APR:        money.MustRate("0.0499"),
			TermMonths: 60,
		},
	}

	q, err := ComputeQuote(Inputs{Deal: dealInput, Jurisdiction: j, StateRules: rules, VehicleCost: money.MustMoney("25000.00"), Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}
	if q.Amortization == nil {
		t.Fatal("expected an amortization summary for a retail deal")
	}
	// 30000 - 2000 rebate = 28000, plus 6.25% TX tax on 28000 (1750); no
	// down payment, so the whole cash price is financed.
	wantAmountFinanced := money.MustMoney("29750.00")
	if q.AmountFinanced.String() != wantAmountFinanced.String() {
		t.Errorf("amountFinanced = %s, want %s (manufacturer rebate not applied)", q.AmountFinanced, wantAmountFinanced)
	}
}

func TestComputeQuote_ProfitBreakdown(t *testing.T) {
	store := staterules.NewStore(nil)
	rules, _ := store.Get("TX", time.Now())
	j := &domain.Jurisdiction{StateRate: money.MustRate("0.0625")}

	dealInput := domain.DealInput{
		VehiclePrice: money.MustMoney("20000.00"),
		StateCode:    "TX",
		AsOfDate:     time.Now(),
		DealType:     domain.DealTypeCash,
		Products: []domain.ProductLine{
			{Category: domain.ProductGap, Price: money.MustMoney("800.00"), Cost: money.MustMoney("400.00")},
		},
	}
	q, err := ComputeQuote(Inputs{Deal: dealInput, Jurisdiction: j, StateRules: rules, VehicleCost: money.MustMoney("18000.00"), Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("ComputeQuote failed: %v", err)
	}
	if q.Profit.Front.String() != "2000.00" {
		t.Errorf("front profit = %s, want 2000.00", q.Profit.Front)
	}
	if q.Profit.Back.String() != "400.00" {
		t.Errorf("back profit = %s, want 400.00", q.Profit.Back)
	}
	if q.Profit.Total.String() != "2400.00" {
		t.Errorf("total profit = %s, want 2400.00", q.Profit.Total)
	}
}
