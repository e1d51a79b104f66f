package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/jurisdiction"
	"github.com/dafibh/dealdesk-backend/internal/middleware"
	"github.com/dafibh/dealdesk-backend/internal/quote"
	"github.com/dafibh/dealdesk-backend/internal/service"
	"github.com/dafibh/dealdesk-backend/internal/staterules"
	"github.com/dafibh/dealdesk-backend/internal/tax"
	"github.com/dafibh/dealdesk-backend/internal/validate"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DealHandler exposes the Deal Computation Core and Atomic Deal Lifecycle
// Manager over HTTP: spec §6.2's RPC-neutral surface, rendered as the
// teacher's echo.Context + RFC 7807 problem-details convention.
type DealHandler struct {
	authService     *service.AuthService
	dealService     *service.DealService
	scenarioService *service.ScenarioService
	jurisdictions   *jurisdiction.Resolver
	stateRules      *staterules.Store
}

// NewDealHandler wires a DealHandler.
func NewDealHandler(
	authService *service.AuthService,
	dealService *service.DealService,
	scenarioService *service.ScenarioService,
	jurisdictions *jurisdiction.Resolver,
	stateRules *staterules.Store,
) *DealHandler {
	return &DealHandler{
		authService:     authService,
		dealService:     dealService,
		scenarioService: scenarioService,
		jurisdictions:   jurisdictions,
		stateRules:      stateRules,
	}
}

// currentUser resolves the caller to its domain.User regardless of which
// side of the dual-auth surface authenticated the request: an Auth0
// session carries a subject (auth0_id), while a DMS/CRM API token already
// resolved straight to a UserID.
func (h *DealHandler) currentUser(c echo.Context) (*domain.User, error) {
	if middleware.IsAPITokenAuth(c) {
		userID := middleware.GetUserID(c)
		if userID == uuid.Nil {
			return nil, domain.ErrUnauthorized
		}
		return h.authService.GetUserByID(userID)
	}

	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return h.authService.GetUserByAuth0ID(auth0ID)
}

// CalculateSalesTaxRequest is the standalone tax-only calculation spec
// §6.2 names calculateSalesTax: it resolves a jurisdiction and returns its
// rate breakdown. No amount is taxed and no deal context is required.
type CalculateSalesTaxRequest struct {
	ZipCode  string    `json:"zipCode"`
	AsOfDate time.Time `json:"asOfDate"`
}

// CalculateSalesTax handles POST /tax/sales-tax.
func (h *DealHandler) CalculateSalesTax(c echo.Context) error {
	var req CalculateSalesTaxRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if req.AsOfDate.IsZero() {
		req.AsOfDate = time.Now()
	}

	j, err := h.jurisdictions.Resolve(req.ZipCode, req.AsOfDate)
	if err != nil {
		return h.translateError(c, err)
	}
	breakdown := jurisdiction.GetRates(j)
	return c.JSON(http.StatusOK, breakdown)
}

// CalculateQuote handles POST /deals/quote: a pure calculation with no
// persistence, letting a desk preview numbers before committing to
// createDeal.
func (h *DealHandler) CalculateQuote(c echo.Context) error {
	var input domain.DealInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	if _, err := validate.DealInput(input); err != nil {
		return h.translateError(c, err)
	}

	j, err := h.jurisdictions.Resolve(input.ZipCode, input.AsOfDate)
	if err != nil {
		return h.translateError(c, err)
	}
	rules, err := h.stateRules.Get(input.StateCode, input.AsOfDate)
	if err != nil {
		return h.translateError(c, err)
	}

	computed, err := quote.ComputeQuote(quote.Inputs{
		Deal:         input,
		Jurisdiction: j,
		StateRules:   rules,
		Profile:      tax.SumThenRound,
	})
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, computed)
}

// CreateDealRequest is the wire shape of POST /deals.
type CreateDealRequest struct {
	CustomerID    *uuid.UUID      `json:"customerId"`
	CustomerFirst string          `json:"customerFirstName"`
	CustomerLast  string          `json:"customerLastName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	VehicleID     *int32          `json:"vehicleId"`
	Input         domain.DealInput `json:"input"`
}

// CreateDeal handles POST /deals.
func (h *DealHandler) CreateDeal(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return NewUnauthorizedError(c, "authentication required")
	}
	tenantID := middleware.GetTenantID(c)

	var req CreateDealRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	deal, scenario, err := h.dealService.CreateDeal(service.CreateDealRequest{
		TenantID:      tenantID,
		SalespersonID: user.ID,
		CustomerID:    req.CustomerID,
		CustomerFirst: req.CustomerFirst,
		CustomerLast:  req.CustomerLast,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		VehicleID:     req.VehicleID,
		Input:         req.Input,
	})
	if err != nil {
		return h.translateError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"deal": deal, "scenario": scenario})
}

// UpdateDealStatusRequest is the wire shape of POST /deals/:id/transition.
type UpdateDealStatusRequest struct {
	ExpectedVersion int32             `json:"expectedVersion"`
	Status          domain.DealStatus `json:"status"`
}

// TransitionStatus handles POST /deals/:id/transition.
func (h *DealHandler) TransitionStatus(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid deal id", nil)
	}

	var req UpdateDealStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	deal, err := h.dealService.TransitionStatus(tenantID, dealID, req.ExpectedVersion, req.Status)
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, deal)
}

// UpdateDealRequest is the wire shape of PATCH /deals/:id: reassigns a
// deal's salesperson, customer, or vehicle reservation without touching
// its scenario or quote. A patch that leaves every field unchanged from
// the current row is a no-op — version is not bumped.
type UpdateDealRequest struct {
	ExpectedVersion int32      `json:"expectedVersion"`
	SalespersonID   *uuid.UUID `json:"salespersonId"`
	CustomerID      *uuid.UUID `json:"customerId"`
	VehicleID       *int32     `json:"vehicleId"`
}

// UpdateDeal handles PATCH /deals/:id, the spec §6.2 updateDeal operation.
func (h *DealHandler) UpdateDeal(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	dealID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid deal id", nil)
	}

	var req UpdateDealRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	deal, err := h.dealService.UpdateDeal(tenantID, dealID, req.ExpectedVersion, func(d *domain.Deal) {
		if req.SalespersonID != nil {
			d.SalespersonID = *req.SalespersonID
		}
		if req.CustomerID != nil {
			d.CustomerID = *req.CustomerID
		}
		if req.VehicleID != nil {
			d.VehicleID = req.VehicleID
		}
	})
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, deal)
}

// UpdateScenarioRequest is the wire shape of PATCH /scenarios/:id.
type UpdateScenarioRequest struct {
	Input domain.DealInput `json:"input"`
}

// UpdateScenario handles PATCH /scenarios/:id.
func (h *DealHandler) UpdateScenario(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return NewUnauthorizedError(c, "authentication required")
	}
	tenantID := middleware.GetTenantID(c)
	scenarioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid scenario id", nil)
	}

	var req UpdateScenarioRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	scenario, err := h.scenarioService.UpdateScenario(tenantID, scenarioID, user.ID, req.Input)
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, scenario)
}

// ExportScenario handles GET /scenarios/:id/export, archiving the
// scenario's current quote to object storage and returning a presigned
// URL to the archived copy.
func (h *DealHandler) ExportScenario(c echo.Context) error {
	if !h.scenarioService.ExportEnabled() {
		return NewServiceUnavailableError(c, "Quote export is disabled (storage not configured)")
	}
	tenantID := middleware.GetTenantID(c)
	scenarioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid scenario id", nil)
	}

	url, err := h.scenarioService.ExportQuote(c.Request().Context(), tenantID, scenarioID)
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// ScenarioHistory handles GET /scenarios/:id/history.
func (h *DealHandler) ScenarioHistory(c echo.Context) error {
	scenarioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid scenario id", nil)
	}
	entries, err := h.scenarioService.History(scenarioID)
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// ScenarioPlayback handles GET /scenarios/:id/playback?at=RFC3339.
func (h *DealHandler) ScenarioPlayback(c echo.Context) error {
	scenarioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid scenario id", nil)
	}
	at := time.Now()
	if raw := c.QueryParam("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return NewValidationError(c, "at must be an RFC3339 timestamp", nil)
		}
		at = parsed
	}

	snapshot, err := h.scenarioService.Playback(scenarioID, at)
	if err != nil {
		return h.translateError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// translateError maps the ADLM/C1-C10 error vocabulary (spec §7) onto the
// RFC 7807 problem-details responses the rest of the API already uses.
func (h *DealHandler) translateError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrJurisdictionNotFound),
		errors.Is(err, domain.ErrStateRulesNotFound),
		errors.Is(err, domain.ErrDealNotFound),
		errors.Is(err, domain.ErrVehicleNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrUnsupportedState):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrVersionConflict):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidDealState):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrVehicleNotAvailable):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrBreakdownMismatch), errors.Is(err, domain.ErrNonMonotonicRevision):
		log.Error().Err(err).Msg("invariant violation in deal computation core")
		return NewInternalError(c, "internal calculation error")
	default:
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fieldErrors := make([]ValidationError, 0, len(verr.Fields))
			for field, msg := range verr.Fields {
				fieldErrors = append(fieldErrors, ValidationError{Field: field, Message: msg})
			}
			return NewValidationError(c, "validation failed", fieldErrors)
		}
		log.Error().Err(err).Msg("unhandled deal computation core error")
		return NewInternalError(c, "internal error")
	}
}
