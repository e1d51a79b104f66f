package service

import (
	"testing"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/dafibh/dealdesk-backend/internal/quote"
	"github.com/dafibh/dealdesk-backend/internal/staterules"
	"github.com/dafibh/dealdesk-backend/internal/tax"
	"github.com/dafibh/dealdesk-backend/internal/testutil"
	"github.com/google/uuid"
)

func newTestScenarioService(t *testing.T) (*ScenarioService, *testutil.MockScenarioRepository, *testutil.MockChangeLogRepository) {
	t.Helper()

	jurisdictionRepo := testutil.NewMockJurisdictionRepository()
	jurisdictionRepo.AddJurisdiction(&domain.Jurisdiction{Zip: "75201", State: "TX", StateRate: money.MustRate("0.0625")})

	stateRuleRepo := testutil.NewMockStateRuleRepository()
	store := staterules.NewStore(nil)
	rules, err := store.Get("TX", time.Now())
	if err != nil {
		t.Fatalf("unexpected error seeding state rules: %v", err)
	}
	stateRuleRepo.AddStateRules(rules)

	scenarioRepo := testutil.NewMockScenarioRepository()
	changeLogRepo := testutil.NewMockChangeLogRepository()

	svc := NewScenarioService(
		testutil.NewMockTransactionManager(),
		scenarioRepo,
		changeLogRepo,
		jurisdictionRepo,
		stateRuleRepo,
		NewExportService(nil),
	)
	return svc, scenarioRepo, changeLogRepo
}

func seedScenario(t *testing.T, scenarioRepo *testutil.MockScenarioRepository, changeLogRepo *testutil.MockChangeLogRepository, dealID uuid.UUID, input domain.DealInput) *domain.Scenario {
	t.Helper()
	store := staterules.NewStore(nil)
	rules, _ := store.Get(input.StateCode, input.AsOfDate)
	j := &domain.Jurisdiction{Zip: input.ZipCode, StateRate: money.MustRate("0.0625")}
	computed, err := quote.ComputeQuote(quote.Inputs{Deal: input, Jurisdiction: j, StateRules: rules, Profile: tax.SumThenRound})
	if err != nil {
		t.Fatalf("seed ComputeQuote failed: %v", err)
	}

	scenario := &domain.Scenario{
		ID:       uuid.New(),
		DealID:   dealID,
		Revision: 1,
		Input:    input,
		Quote:    *computed,
		IsActive: true,
	}
	scenarioRepo.AddScenario(scenario)

	if err := changeLogRepo.Append(nil, &domain.ScenarioChangeLog{
		ID:         uuid.New(),
		ScenarioID: scenario.ID,
		DealID:     dealID,
		ChangeType: domain.ChangeTypeCreate,
		Timestamp:  time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed changelog append failed: %v", err)
	}
	return scenario
}

func TestUpdateScenario_RecalculatesAndRecordsAudit(t *testing.T) {
	svc, scenarioRepo, changeLogRepo := newTestScenarioService(t)

	dealID := uuid.New()
	input := domain.DealInput{
		VehiclePrice: money.MustMoney("20000.00"),
		ZipCode:      "75201",
		StateCode:    "TX",
		AsOfDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DealType:     domain.DealTypeCash,
	}
	scenario := seedScenario(t, scenarioRepo, changeLogRepo, dealID, input)

	newInput := input
	newInput.VehiclePrice = money.MustMoney("21000.00")

	userID := uuid.New()
	updated, err := svc.UpdateScenario(1, scenario.ID, userID, newInput)
	if err != nil {
		t.Fatalf("UpdateScenario failed: %v", err)
	}
	if updated.Revision != 2 {
		t.Errorf("revision = %d, want 2", updated.Revision)
	}
	if updated.Input.VehiclePrice.String() != newInput.VehiclePrice.String() {
		t.Errorf("input not replaced: got %s", updated.Input.VehiclePrice)
	}

	history, err := svc.History(scenario.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) < 3 {
		t.Fatalf("expected at least 3 changelog entries (seed create, field update, recalculation), got %d", len(history))
	}
	last := history[len(history)-1]
	if last.ChangeType != domain.ChangeTypeRecalculation {
		t.Errorf("last entry type = %s, want recalculation", last.ChangeType)
	}
	if last.CalculationSnapshot == nil {
		t.Error("recalculation entry missing its calculation snapshot")
	}
}

func TestUpdateScenario_RejectsInvalidInput(t *testing.T) {
	svc, scenarioRepo, changeLogRepo := newTestScenarioService(t)

	dealID := uuid.New()
	input := domain.DealInput{
		VehiclePrice: money.MustMoney("20000.00"),
		ZipCode:      "75201",
		StateCode:    "TX",
		AsOfDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DealType:     domain.DealTypeCash,
	}
	scenario := seedScenario(t, scenarioRepo, changeLogRepo, dealID, input)

	badInput := input
	badInput.StateCode = "TEXAS"

	if _, err := svc.UpdateScenario(1, scenario.ID, uuid.New(), badInput); err == nil {
		t.Fatal("expected a validation error for a malformed state code")
	}
}
