package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/dafibh/dealdesk-backend/internal/quote"
	"github.com/dafibh/dealdesk-backend/internal/tax"
	"github.com/dafibh/dealdesk-backend/internal/validate"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// vehicleReservationWindow is how long a vehicle stays soft-reserved for a
// draft deal before another desk may take it.
const vehicleReservationWindow = 24 * time.Hour

// DealService implements the Atomic Deal Lifecycle Manager (C9): every
// operation here runs inside one SERIALIZABLE transaction so a deal, its
// first scenario, its vehicle reservation, and its audit entry are created
// (or rejected) together, never partially.
type DealService struct {
	txManager    domain.TransactionManager
	deals        domain.DealRepository
	scenarios    domain.ScenarioRepository
	changeLogs   domain.ChangeLogRepository
	vehicles     domain.VehicleRepository
	customers    domain.CustomerRepository
	stockNumbers domain.StockNumberRepository
	jurisdiction domain.JurisdictionRepository
	stateRules   domain.StateRuleRepository
}

// NewDealService wires every collaborator the lifecycle manager needs.
func NewDealService(
	txManager domain.TransactionManager,
	deals domain.DealRepository,
	scenarios domain.ScenarioRepository,
	changeLogs domain.ChangeLogRepository,
	vehicles domain.VehicleRepository,
	customers domain.CustomerRepository,
	stockNumbers domain.StockNumberRepository,
	jurisdiction domain.JurisdictionRepository,
	stateRules domain.StateRuleRepository,
) *DealService {
	return &DealService{
		txManager:    txManager,
		deals:        deals,
		scenarios:    scenarios,
		changeLogs:   changeLogs,
		vehicles:     vehicles,
		customers:    customers,
		stockNumbers: stockNumbers,
		jurisdiction: jurisdiction,
		stateRules:   stateRules,
	}
}

// CreateDealRequest is the caller-supplied shape of a new deal: the
// customer either already exists (CustomerID set) or is described by
// contact fields to find-or-create; VehicleID names dealer inventory to
// reserve, if any.
type CreateDealRequest struct {
	TenantID      int32
	SalespersonID uuid.UUID
	CustomerID    *uuid.UUID
	CustomerFirst string
	CustomerLast  string
	CustomerEmail string
	CustomerPhone string
	VehicleID     *int32
	Input         domain.DealInput
}

// CreateDeal validates the input, resolves jurisdiction/state rules,
// computes the first scenario's quote, and persists the Deal, its
// Scenario, the vehicle reservation, and the creation audit entry in one
// SERIALIZABLE transaction with automatic retry on a transient conflict.
func (s *DealService) CreateDeal(req CreateDealRequest) (*domain.Deal, *domain.Scenario, error) {
	warnings, err := validate.DealInput(req.Input)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Warn().Int32("tenant_id", req.TenantID).Msg(w)
	}

	j, err := s.jurisdiction.Resolve(req.Input.ZipCode, req.Input.AsOfDate)
	if err != nil {
		return nil, nil, err
	}
	rules, err := s.stateRules.Get(req.Input.StateCode, req.Input.AsOfDate)
	if err != nil {
		return nil, nil, err
	}

	var deal *domain.Deal
	var scenario *domain.Scenario

	err = s.txManager.WithSerializableTransaction(func(tx domain.Tx) error {
		customerID, err := s.resolveCustomer(tx, req)
		if err != nil {
			return err
		}

		var vehicleID *int32
		vehicleCost := money.Zero()
		if req.VehicleID != nil {
			v, err := s.vehicles.GetByIDForUpdate(tx, req.TenantID, *req.VehicleID)
			if err != nil {
				return err
			}
			if v.Status != domain.VehicleStatusAvailable {
				return domain.ErrVehicleNotAvailable
			}
			now := time.Now()
			until := now.Add(vehicleReservationWindow)
			v.Status = domain.VehicleStatusPending
			v.ReservedUntil = &until
			vehicleID = &v.ID
			vehicleCost = v.Cost
			// ReservedForDealID is set once the deal ID is known below.
			if _, err := s.vehicles.Update(tx, v); err != nil {
				return err
			}
		}

		computed, err := quote.ComputeQuote(quote.Inputs{
			Deal:         req.Input,
			Jurisdiction: j,
			StateRules:   rules,
			VehicleCost:  vehicleCost,
			Profile:      tax.SumThenRound,
		})
		if err != nil {
			return err
		}

		dealNumber, err := s.stockNumbers.NextDealNumber(tx, req.TenantID, time.Now())
		if err != nil {
			return err
		}

		scenarioID := uuid.New()
		newDeal := &domain.Deal{
			ID:                uuid.New(),
			TenantID:          req.TenantID,
			DealNumber:        dealNumber,
			CustomerID:        customerID,
			VehicleID:         vehicleID,
			SalespersonID:     req.SalespersonID,
			Status:            domain.DealStatusDraft,
			CurrentScenarioID: scenarioID,
		}
		createdDeal, err := s.deals.Create(tx, newDeal)
		if err != nil {
			return err
		}

		if vehicleID != nil {
			v, err := s.vehicles.GetByIDForUpdate(tx, req.TenantID, *vehicleID)
			if err != nil {
				return err
			}
			v.ReservedForDealID = &createdDeal.ID
			if _, err := s.vehicles.Update(tx, v); err != nil {
				return err
			}
		}

		newScenario := &domain.Scenario{
			ID:       scenarioID,
			DealID:   createdDeal.ID,
			Revision: 1,
			Input:    req.Input,
			Quote:    *computed,
			IsActive: true,
		}
		createdScenario, err := s.scenarios.Create(tx, newScenario)
		if err != nil {
			return err
		}

		snapshot, err := marshalQuote(&createdScenario.Quote)
		if err != nil {
			return err
		}
		if err := s.changeLogs.Append(tx, &domain.ScenarioChangeLog{
			ID:                  uuid.New(),
			ScenarioID:          createdScenario.ID,
			DealID:              createdDeal.ID,
			UserID:              req.SalespersonID,
			ChangeType:          domain.ChangeTypeCreate,
			CalculationSnapshot: snapshot,
			Timestamp:           time.Now(),
		}); err != nil {
			return err
		}

		deal, scenario = createdDeal, createdScenario
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deal, scenario, nil
}

func (s *DealService) resolveCustomer(tx domain.Tx, req CreateDealRequest) (uuid.UUID, error) {
	if req.CustomerID != nil {
		return *req.CustomerID, nil
	}
	if err := validate.Email(req.CustomerEmail); err != nil {
		return uuid.UUID{}, err
	}
	normalizedPhone, err := validate.Phone(req.CustomerPhone)
	if err != nil {
		return uuid.UUID{}, err
	}

	existing, err := s.customers.FindByContact(tx, req.TenantID, req.CustomerEmail, normalizedPhone)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		return uuid.UUID{}, err
	}

	created, err := s.customers.Create(tx, &domain.Customer{
		TenantID:  req.TenantID,
		FirstName: req.CustomerFirst,
		LastName:  req.CustomerLast,
		Email:     req.CustomerEmail,
		Phone:     normalizedPhone,
	})
	if err != nil {
		return uuid.UUID{}, err
	}
	return created.ID, nil
}

// UpdateDeal reassigns a deal's salesperson/customer/vehicle, enforcing
// optimistic concurrency: expectedVersion must match the row's current
// version or the write is rejected with domain.ErrVersionConflict.
func (s *DealService) UpdateDeal(tenantID int32, dealID uuid.UUID, expectedVersion int32, mutate func(d *domain.Deal)) (*domain.Deal, error) {
	var updated *domain.Deal
	err := s.txManager.WithSerializableTransaction(func(tx domain.Tx) error {
		d, err := s.deals.GetByIDForUpdate(tx, tenantID, dealID)
		if err != nil {
			return err
		}
		if d.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		mutate(d)
		result, err := s.deals.Update(tx, d, expectedVersion)
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

// TransitionStatus moves a deal to a new status, rejecting any edge the
// lifecycle state machine (domain.CanTransition) does not allow.
func (s *DealService) TransitionStatus(tenantID int32, dealID uuid.UUID, expectedVersion int32, to domain.DealStatus) (*domain.Deal, error) {
	var updated *domain.Deal
	err := s.txManager.WithSerializableTransaction(func(tx domain.Tx) error {
		d, err := s.deals.GetByIDForUpdate(tx, tenantID, dealID)
		if err != nil {
			return err
		}
		if d.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		if !domain.CanTransition(d.Status, to) {
			return domain.ErrInvalidDealState
		}
		d.Status = to
		result, err := s.deals.Update(tx, d, expectedVersion)
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

func marshalQuote(q *domain.ComputedQuote) ([]byte, error) {
	return json.Marshal(q)
}
