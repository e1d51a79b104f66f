package service

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/audit"
	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/quote"
	"github.com/dafibh/dealdesk-backend/internal/tax"
	"github.com/dafibh/dealdesk-backend/internal/validate"
	"github.com/google/uuid"
)

// ScenarioService implements the scenario half of the Atomic Deal Lifecycle
// Manager: editing a scenario's DealInput, recomputing its quote, and
// writing the resulting audit trail.
type ScenarioService struct {
	txManager    domain.TransactionManager
	scenarios    domain.ScenarioRepository
	changeLogs   domain.ChangeLogRepository
	jurisdiction domain.JurisdictionRepository
	stateRules   domain.StateRuleRepository
	ledger       *audit.Ledger
	export       *ExportService
}

// NewScenarioService constructs a ScenarioService. export may be a service
// built with a nil storage adapter (storage not configured); ExportQuote
// then reports ErrExportStorageNotConfigured rather than panicking.
func NewScenarioService(
	txManager domain.TransactionManager,
	scenarios domain.ScenarioRepository,
	changeLogs domain.ChangeLogRepository,
	jurisdiction domain.JurisdictionRepository,
	stateRules domain.StateRuleRepository,
	export *ExportService,
) *ScenarioService {
	return &ScenarioService{
		txManager:    txManager,
		scenarios:    scenarios,
		changeLogs:   changeLogs,
		jurisdiction: jurisdiction,
		stateRules:   stateRules,
		ledger:       audit.NewLedger(changeLogs),
		export:       export,
	}
}

// ExportEnabled reports whether quote export/archival is configured.
func (s *ScenarioService) ExportEnabled() bool {
	return s.export.IsEnabled()
}

// ExportQuote archives scenarioID's current quote to object storage and
// returns a presigned URL to the archived copy (the "glovebox copy" /
// compliance-retention record). Read-only: it does not touch the ADLM's
// own transaction or change log.
func (s *ScenarioService) ExportQuote(ctx context.Context, tenantID int32, scenarioID uuid.UUID) (string, error) {
	scenario, err := s.scenarios.GetByID(tenantID, scenarioID)
	if err != nil {
		return "", err
	}
	return s.export.Export(ctx, tenantID, scenario)
}

// History returns a scenario's full change log, oldest first.
func (s *ScenarioService) History(scenarioID uuid.UUID) ([]*domain.ScenarioChangeLog, error) {
	return s.ledger.History(scenarioID)
}

// Playback reconstructs a scenario's state as of a past instant.
func (s *ScenarioService) Playback(scenarioID uuid.UUID, at time.Time) (*audit.Snapshot, error) {
	return s.ledger.Playback(scenarioID, at)
}

// UpdateScenario replaces a scenario's DealInput, recomputes its quote, and
// writes one changelog entry per changed top-level field plus one
// recalculation entry carrying the new ComputedQuote — all inside a single
// transaction, so a scenario's stored Quote is never observed out of sync
// with its own audit trail.
func (s *ScenarioService) UpdateScenario(tenantID int32, scenarioID uuid.UUID, userID uuid.UUID, newInput domain.DealInput) (*domain.Scenario, error) {
	if _, err := validate.DealInput(newInput); err != nil {
		return nil, err
	}

	var updated *domain.Scenario
	err := s.txManager.WithTransaction(func(tx domain.Tx) error {
		existing, err := s.scenarios.GetByID(tenantID, scenarioID)
		if err != nil {
			return err
		}

		j, err := s.jurisdiction.Resolve(newInput.ZipCode, newInput.AsOfDate)
		if err != nil {
			return err
		}
		rules, err := s.stateRules.Get(newInput.StateCode, newInput.AsOfDate)
		if err != nil {
			return err
		}

		computed, err := quote.ComputeQuote(quote.Inputs{
			Deal:         newInput,
			Jurisdiction: j,
			StateRules:   rules,
			Profile:      tax.SumThenRound,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		for _, delta := range diffDealInput(existing.Input, newInput) {
			if err := s.ledger.Append(tx, &domain.ScenarioChangeLog{
				ID:         uuid.New(),
				ScenarioID: scenarioID,
				DealID:     existing.DealID,
				UserID:     userID,
				FieldName:  delta.field,
				OldValue:   delta.oldValue,
				NewValue:   delta.newValue,
				ChangeType: domain.ChangeTypeUpdate,
				Timestamp:  now,
			}); err != nil {
				return err
			}
			now = now.Add(time.Microsecond)
		}

		snapshot, err := marshalQuote(computed)
		if err != nil {
			return err
		}
		if err := s.ledger.Append(tx, &domain.ScenarioChangeLog{
			ID:                  uuid.New(),
			ScenarioID:          scenarioID,
			DealID:              existing.DealID,
			UserID:              userID,
			ChangeType:          domain.ChangeTypeRecalculation,
			CalculationSnapshot: snapshot,
			Timestamp:           now,
		}); err != nil {
			return err
		}

		existing.Input = newInput
		existing.Quote = *computed
		existing.Revision++
		result, err := s.scenarios.Update(tx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// fieldDelta is one top-level DealInput field that changed between two
// revisions, rendered to strings for the audit trail.
type fieldDelta struct {
	field    string
	oldValue string
	newValue string
}

// diffDealInput compares two DealInput values field by field using
// reflection, so scenario editing never needs updating by hand when
// DealInput grows a field. Every field is diffed by its fmt.Sprintf
// rendering, so slices (Fees, Products) are compared as a whole.
func diffDealInput(oldInput, newInput domain.DealInput) []fieldDelta {
	var deltas []fieldDelta
	oldVal := reflect.ValueOf(oldInput)
	newVal := reflect.ValueOf(newInput)
	t := oldVal.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		oldField := oldVal.Field(i).Interface()
		newField := newVal.Field(i).Interface()
		oldStr := fmt.Sprintf("%v", oldField)
		newStr := fmt.Sprintf("%v", newField)
		if oldStr != newStr {
			deltas = append(deltas, fieldDelta{field: field.Name, oldValue: oldStr, newValue: newStr})
		}
	}
	return deltas
}
