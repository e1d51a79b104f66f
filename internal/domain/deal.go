package domain

import (
	"time"

	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/google/uuid"
)

// DealStatus is one state in a Deal's lifecycle.
type DealStatus string

const (
	DealStatusDraft     DealStatus = "draft"
	DealStatusPending   DealStatus = "pending"
	DealStatusApproved  DealStatus = "approved"
	DealStatusFunded    DealStatus = "funded"
	DealStatusDelivered DealStatus = "delivered"
	DealStatusCancelled DealStatus = "cancelled"
)

// dealTransitions enumerates the valid forward edges of the Deal lifecycle.
// Any state may transition to cancelled; reverse edges are never valid.
var dealTransitions = map[DealStatus][]DealStatus{
	DealStatusDraft:     {DealStatusPending, DealStatusCancelled},
	DealStatusPending:   {DealStatusApproved, DealStatusCancelled},
	DealStatusApproved:  {DealStatusFunded, DealStatusCancelled},
	DealStatusFunded:    {DealStatusDelivered, DealStatusCancelled},
	DealStatusDelivered: {DealStatusCancelled},
	DealStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to DealStatus) bool {
	for _, candidate := range dealTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Deal is the mutable aggregate root of a vehicle transaction in progress.
// It exclusively owns its Scenarios and ScenarioChangeLogs, and is mutated
// only through Atomic Deal Lifecycle Manager operations that increment
// Version for optimistic concurrency control. A Deal is never hard-deleted;
// cancellation is a status transition.
type Deal struct {
	ID                uuid.UUID
	TenantID          int32
	DealNumber        string
	CustomerID        uuid.UUID
	VehicleID         *int32
	SalespersonID     uuid.UUID
	Status            DealStatus
	Version           int32
	CurrentScenarioID uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DealType distinguishes the finance path a Scenario computes.
type DealType string

const (
	DealTypeRetail DealType = "RETAIL"
	DealTypeLease  DealType = "LEASE"
	DealTypeCash   DealType = "CASH"
)

// FeeLine is one itemized fee on a deal (doc fee, title fee, ...).
type FeeLine struct {
	Code    string
	Amount  money.Money
	Taxable bool
}

// ProductCategory names a type of F&I product sold alongside the vehicle.
type ProductCategory string

const (
	ProductWarranty       ProductCategory = "warranty"
	ProductGap            ProductCategory = "gap"
	ProductMaintenance    ProductCategory = "maintenance"
	ProductTireWheel      ProductCategory = "tire_wheel"
	ProductPaintProtection ProductCategory = "paint_protection"
)

// ProductLine is one F&I product line item.
type ProductLine struct {
	Category ProductCategory
	Price    money.Money
	Cost     money.Money
}

// OriginTaxInfo carries tax-paid-elsewhere information used by the
// reciprocity calculation.
type OriginTaxInfo struct {
	StateCode   string
	Amount      money.Money
	TaxPaidDate time.Time
}

// FinancingTerms parameterizes a retail finance calculation.
type FinancingTerms struct {
	DownPayment money.Money
	APR         money.Rate
	TermMonths  int
}

// LeasingTerms parameterizes a lease calculation.
type LeasingTerms struct {
	MSRP             money.Money
	SellingPrice     money.Money
	TermMonths       int
	MoneyFactor      money.Rate
	ResidualPercent  money.Rate
	CashDown         money.Money
	AcquisitionFee   money.Money
	TaxOnMonthlyPayment bool
}

// DealInput is the full set of deal-specific facts the Tax Computation
// Engine and Deal Aggregator consume; everything else (jurisdiction, state
// rules) is resolved separately and passed in alongside it.
type DealInput struct {
	VehiclePrice       money.Money
	DealerDiscount     money.Money
	ManufacturerRebate money.Money
	DealerRebate       money.Money
	TradeAllowance     money.Money
	TradePayoff        money.Money
	AccessoriesTotal   money.Money
	Fees               []FeeLine
	Products           []ProductLine
	ZipCode            string
	StateCode          string
	AsOfDate           time.Time
	DealType           DealType
	OriginTaxInfo      *OriginTaxInfo
	Financing          *FinancingTerms
	Leasing            *LeasingTerms
}

// TaxBreakdownLine is one component of the final tax breakdown.
type TaxBreakdownLine struct {
	Level  RateBreakdownLevel
	Rate   money.Rate
	Amount money.Money
}

// AmortizationSummary is the output of the Finance Calculator.
type AmortizationSummary struct {
	AmountFinanced    money.Money
	MonthlyPayment    money.Money
	TermMonths        int
	TotalOfPayments   money.Money
	TotalInterest     money.Money
	Warnings          []string
}

// LeaseSummary is the output of the Lease Calculator.
type LeaseSummary struct {
	GrossCapCost     money.Money
	CapReduction     money.Money
	AdjustedCapCost  money.Money
	Residual         money.Money
	DepreciationPerMonth money.Money
	RentChargePerMonth   money.Money
	BasePayment      money.Money
	MonthlyPayment   money.Money
	DriveOff         money.Money
	EquivalentAPR    money.Rate
	Warnings         []string
}

// ProfitSummary breaks down gross profit on a deal.
type ProfitSummary struct {
	Front money.Money
	Back  money.Money
	Total money.Money
}

// ComputedQuote is the immutable output of the Deal Aggregator (C7): every
// number a desk needs to present and defend a deal.
type ComputedQuote struct {
	SaleBase          money.Money
	NetTradeIn        money.Money
	TaxableAmount     money.Money
	TaxBreakdown      []TaxBreakdownLine
	TotalTax          money.Money
	TotalFees         money.Money
	TotalProducts     money.Money
	CashPrice         money.Money
	AmountFinanced    money.Money
	MonthlyPayment    money.Money
	Amortization      *AmortizationSummary
	Lease             *LeaseSummary
	Profit            ProfitSummary
	OutTheDoor        money.Money
	ReciprocityCredit money.Money
	AppliedRules      []string
}

// Scenario references a Deal and embeds one DealInput + its ComputedQuote,
// i.e. one what-if variant. A Deal may have many Scenarios; one is active.
type Scenario struct {
	ID         uuid.UUID
	DealID     uuid.UUID
	Revision   int32
	Input      DealInput
	Quote      ComputedQuote
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScenarioChangeType names why a ScenarioChangeLog entry was written.
type ScenarioChangeType string

const (
	ChangeTypeCreate         ScenarioChangeType = "create"
	ChangeTypeUpdate         ScenarioChangeType = "update"
	ChangeTypeDelete         ScenarioChangeType = "delete"
	ChangeTypeRecalculation  ScenarioChangeType = "recalculation"
)

// ScenarioChangeLog is one append-only, immutable entry in a scenario's
// audit trail. (ScenarioID, Timestamp) totally orders a scenario's history;
// replaying entries in order reconstructs any prior state.
type ScenarioChangeLog struct {
	ID                 uuid.UUID
	ScenarioID         uuid.UUID
	DealID             uuid.UUID
	UserID             uuid.UUID
	FieldName          string
	OldValue           string
	NewValue           string
	ChangeType         ScenarioChangeType
	CalculationSnapshot []byte // canonical JSON of ComputedQuote, nil unless ChangeType == recalculation
	Metadata           map[string]string
	Timestamp          time.Time
}

// DealRepository persists Deal aggregates.
type DealRepository interface {
	GetByID(tenantID int32, id uuid.UUID) (*Deal, error)
	GetByIDForUpdate(tx Tx, tenantID int32, id uuid.UUID) (*Deal, error)
	Create(tx Tx, d *Deal) (*Deal, error)
	Update(tx Tx, d *Deal, expectedVersion int32) (*Deal, error)
	ListByTenant(tenantID int32) ([]*Deal, error)
}

// ScenarioRepository persists Scenario value objects.
type ScenarioRepository interface {
	GetByID(tenantID int32, id uuid.UUID) (*Scenario, error)
	Create(tx Tx, s *Scenario) (*Scenario, error)
	Update(tx Tx, s *Scenario) (*Scenario, error)
	ListByDeal(tenantID int32, dealID uuid.UUID) ([]*Scenario, error)
}

// ChangeLogRepository persists the append-only ScenarioChangeLog.
type ChangeLogRepository interface {
	Append(tx Tx, entry *ScenarioChangeLog) error
	History(scenarioID uuid.UUID) ([]*ScenarioChangeLog, error)
	LatestTimestamp(scenarioID uuid.UUID) (time.Time, error)
}

// Tx is the narrow transaction handle the repository layer requires of
// the storage collaborator (spec §6.1): callers begin one via
// TransactionManager.WithTransaction and thread it through every
// repository call in the same unit of work.
type Tx interface{}

// TransactionManager begins and commits/rolls back a unit of work under a
// requestable isolation level.
type TransactionManager interface {
	WithTransaction(fn func(tx Tx) error) error
	WithSerializableTransaction(fn func(tx Tx) error) error
}
