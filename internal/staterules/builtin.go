package staterules

import (
	"strings"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

// builtinEpoch is the EffectiveDate stamped on every built-in rule row; it
// predates any real deal so built-in rows are always "current" unless a
// database row supersedes them.
var builtinEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// builtinTable holds one authoritative, hand-maintained StateRules row per
// supported state. It is intentionally not a full 50-state + DC table: only
// the states this engine's scenario library exercises (and their
// structurally distinct neighbors covering several TradeInPolicy/
// VehicleTaxScheme/LeaseTaxMethod/Reciprocity variants; not every
// LeaseTaxMethod has a builtin state) are filled in here. A state with
// neither a database row nor a builtin row fails UnsupportedState, per
// spec — see DESIGN.md for the scope tradeoff.
var builtinTable map[string]domain.StateRules

func rules(stateCode string, mutate func(*domain.StateRules)) domain.StateRules {
	r := defaultRules(stateCode)
	mutate(&r)
	return r
}

func defaultRules(stateCode string) domain.StateRules {
	return domain.StateRules{
		StateCode:     stateCode,
		Version:       1,
		EffectiveDate: builtinEpoch,
		TradeInPolicy: domain.TradeInPolicy{Kind: domain.TradeInFull},
		LeaseRules: domain.LeaseRules{
			TradeInCredit: domain.TradeInPolicy{Kind: domain.TradeInFull},
		},
		ManufacturerRebateTaxable: false,
		DealerRebateTaxable:       false,
		DocFeeTaxable:             true,
		ServiceContractTaxable:    false,
		GapTaxable:                false,
		AccessoriesTaxable:        true,
		NegativeEquityTaxable:     false,
		VehicleTaxScheme:          domain.SchemeStatePlusLocal,
		VehicleUsesLocalSalesTax:  true,
		LeaseMethod:               domain.LeaseMethodMonthly,
		Reciprocity: domain.ReciprocityRules{
			Enabled:           true,
			Scope:             domain.ReciprocityBoth,
			HomeStateBehavior: domain.CreditUpToStateRate,
			CapAtThisStatesTax: true,
		},
	}
}

func init() {
	builtinTable = map[string]domain.StateRules{
		// TX: full trade-in credit, standard state+local, monthly lease tax.
		"TX": rules("TX", func(r *domain.StateRules) {}),

		// CA: full trade-in credit, manufacturer rebates taxable (luxury
		// "Luxury vehicle tax applied" rule surfaced by the tax engine,
		// not a distinct scheme here), upfront-on-selling-price lease tax.
		"CA": rules("CA", func(r *domain.StateRules) {
			r.ManufacturerRebateTaxable = true
			r.LeaseMethod = domain.LeaseMethodUpfrontOnSellingPrice
		}),

		// WI: manufacturer rebates taxable; trade-in in a lease is treated
		// as additional (taxed) cap reduction rather than a tax-free credit.
		"WI": rules("WI", func(r *domain.StateRules) {
			r.ManufacturerRebateTaxable = true
			r.LeaseMethod = domain.LeaseMethodCapReductionTaxed
			r.LeaseRules.TradeInAsCapReduction = true
		}),

		// NC: Highway Use Tax replaces standard sales tax on vehicles;
		// reciprocity credits tax paid elsewhere up to NC's own HUT amount
		// within a 90-day proof window.
		"NC": rules("NC", func(r *domain.StateRules) {
			r.VehicleTaxScheme = domain.SchemeSpecialHUT
			r.VehicleUsesLocalSalesTax = false
			days := 90
			r.Reciprocity = domain.ReciprocityRules{
				Enabled:            true,
				Scope:              domain.ReciprocityBoth,
				HomeStateBehavior:  domain.CreditUpToStateRate,
				RequireProof:       true,
				CapAtThisStatesTax: true,
				TimeWindowDays:     &days,
			}
		}),

		// SC: standard state+local, used as the "origin" state in the NC
		// reciprocity scenario.
		"SC": rules("SC", func(r *domain.StateRules) {}),

		// GA: Title Ad Valorem Tax (TAVT) is a one-time tax in lieu of
		// sales tax and annual ad valorem; no local add-on.
		"GA": rules("GA", func(r *domain.StateRules) {
			r.VehicleTaxScheme = domain.SchemeSpecialTAVT
			r.VehicleUsesLocalSalesTax = false
		}),

		// MT: no state sales tax on vehicles (DMV privilege/registration
		// fee basis instead).
		"MT": rules("MT", func(r *domain.StateRules) {
			r.VehicleTaxScheme = domain.SchemeDMVPrivilegeTax
			r.VehicleUsesLocalSalesTax = false
		}),

		// NY: trade-in credit capped at a statutory maximum; doc fees
		// taxable but capped.
		"NY": rules("NY", func(r *domain.StateRules) {
			cap := money.MustMoney("10000.00")
			r.TradeInPolicy = domain.TradeInPolicy{Kind: domain.TradeInCapped, Cap: cap}
			docCap := money.MustMoney("75.00")
			r.DocFeeCap = &docCap
		}),

		// FL: trade-in credit limited to a percentage of allowance for
		// leases specifically (the retail policy stays FULL).
		"FL": rules("FL", func(r *domain.StateRules) {
			r.LeaseRules.TradeInCredit = domain.TradeInPolicy{
				Kind: domain.TradeInPercent, Percent: money.MustRate("0.5"),
			}
		}),

		// OR: no general sales tax; vehicle privilege tax only, no local
		// add-on, no reciprocity since there is nothing to reciprocate.
		"OR": rules("OR", func(r *domain.StateRules) {
			r.VehicleTaxScheme = domain.SchemeDMVPrivilegeTax
			r.VehicleUsesLocalSalesTax = false
			r.Reciprocity = domain.ReciprocityRules{Enabled: false}
		}),
	}
}

// lookupBuiltin returns the built-in rule row for stateCode (case
// insensitive), if one is hand-maintained; ok is false otherwise.
func lookupBuiltin(stateCode string) (domain.StateRules, bool) {
	r, ok := builtinTable[strings.ToUpper(stateCode)]
	return r, ok
}
