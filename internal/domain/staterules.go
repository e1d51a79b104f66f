package domain

import (
	"time"

	"github.com/dafibh/dealdesk-backend/internal/money"
)

// TradeInPolicyKind names how much of a trade-in allowance reduces the
// taxable base for a retail sale.
type TradeInPolicyKind string

const (
	TradeInFull    TradeInPolicyKind = "FULL"
	TradeInCapped  TradeInPolicyKind = "CAPPED"
	TradeInPercent TradeInPolicyKind = "PERCENT"
	TradeInNone    TradeInPolicyKind = "NONE"
)

// TradeInPolicy is a {kind, parameter} pair: Cap is meaningful only for
// CAPPED, Percent only for PERCENT.
type TradeInPolicy struct {
	Kind    TradeInPolicyKind
	Cap     money.Money
	Percent money.Rate
}

// VehicleTaxScheme names the statutory basis for taxing the vehicle itself,
// distinct from the standard state+local sales tax formula.
type VehicleTaxScheme string

const (
	SchemeStatePlusLocal  VehicleTaxScheme = "STATE_PLUS_LOCAL"
	SchemeSpecialTAVT     VehicleTaxScheme = "SPECIAL_TAVT"
	SchemeSpecialHUT      VehicleTaxScheme = "SPECIAL_HUT"
	SchemeDMVPrivilegeTax VehicleTaxScheme = "DMV_PRIVILEGE_TAX"
)

// LeaseTaxMethod names how sales tax is assessed on a lease.
type LeaseTaxMethod string

const (
	LeaseMethodMonthly               LeaseTaxMethod = "MONTHLY"
	LeaseMethodUpfrontOnSellingPrice LeaseTaxMethod = "UPFRONT_ON_SELLING_PRICE"
	LeaseMethodUpfrontOnPayments     LeaseTaxMethod = "UPFRONT_ON_PAYMENTS"
	LeaseMethodOnePay                LeaseTaxMethod = "ONE_PAY"
	LeaseMethodCapReductionTaxed     LeaseTaxMethod = "CAP_REDUCTION_TAXED"
)

// ReciprocityScope names which deal types a reciprocity credit applies to.
type ReciprocityScope string

const (
	ReciprocityRetailOnly ReciprocityScope = "RETAIL_ONLY"
	ReciprocityBoth       ReciprocityScope = "BOTH"
)

// HomeStateBehavior names how a reciprocity credit is computed relative to
// this state's own tax.
type HomeStateBehavior string

const (
	CreditUpToStateRate HomeStateBehavior = "CREDIT_UP_TO_STATE_RATE"
	CreditFull          HomeStateBehavior = "CREDIT_FULL"
	CreditNone          HomeStateBehavior = "NONE"
)

// ReciprocityRules governs crediting tax already paid in another
// jurisdiction toward this state's tax.
type ReciprocityRules struct {
	Enabled           bool
	Scope             ReciprocityScope
	HomeStateBehavior HomeStateBehavior
	RequireProof      bool
	CapAtThisStatesTax bool
	HasLeaseException bool
	TimeWindowDays    *int
}

// LeaseRules governs how a lease's cap reduction and taxation are computed,
// which may diverge from the retail TradeInPolicy for the same state.
type LeaseRules struct {
	TradeInCredit       TradeInPolicy
	TradeInAsCapReduction bool
}

// StateRules is a versioned, effective-dated bundle of per-state tax
// policy. Identity is {StateCode, Version, EffectiveDate}; rows are never
// updated in place — a change inserts a new row with a later EffectiveDate
// and end-dates the row it supersedes, in the same transaction.
type StateRules struct {
	ID            int32
	StateCode     string
	Version       int32
	EffectiveDate time.Time
	EndDate       *time.Time

	TradeInPolicy TradeInPolicy
	LeaseRules    LeaseRules

	ManufacturerRebateTaxable bool
	DealerRebateTaxable       bool

	DocFeeTaxable bool
	DocFeeCap     *money.Money

	ServiceContractTaxable bool
	GapTaxable             bool
	GapSeparatelyStated    bool
	AccessoriesTaxable     bool
	NegativeEquityTaxable  bool

	VehicleTaxScheme      VehicleTaxScheme
	VehicleUsesLocalSalesTax bool

	LeaseMethod LeaseTaxMethod

	Reciprocity ReciprocityRules
}

// StateRuleRepository looks up point-in-time state tax rules, two-tier:
// database first, built-in fallback second (see staterules.Store).
type StateRuleRepository interface {
	Get(stateCode string, asOfDate time.Time) (*StateRules, error)
	Upsert(r *StateRules) (*StateRules, error)
}
