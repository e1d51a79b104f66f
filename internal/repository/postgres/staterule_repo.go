package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StateRuleRepository implements domain.StateRuleRepository, the database
// tier of the two-tier lookup staterules.Store composes with the built-in
// fallback table.
type StateRuleRepository struct {
	pool *pgxpool.Pool
}

// NewStateRuleRepository constructs a StateRuleRepository.
func NewStateRuleRepository(pool *pgxpool.Pool) *StateRuleRepository {
	return &StateRuleRepository{pool: pool}
}

// stateRulesRow is the JSON-serializable shape of the policy sub-objects
// that don't map cleanly onto individual columns (TradeInPolicy,
// LeaseRules, Reciprocity); storing them as jsonb keeps this table from
// growing a column per nested field.
type stateRulesRow struct {
	TradeInPolicy domain.TradeInPolicy   `json:"tradeInPolicy"`
	LeaseRules    domain.LeaseRules      `json:"leaseRules"`
	Reciprocity   domain.ReciprocityRules `json:"reciprocity"`
}

func (r *StateRuleRepository) Get(stateCode string, asOfDate time.Time) (*domain.StateRules, error) {
	const q = `
		SELECT id, state_code, version, effective_date, end_date,
		       manufacturer_rebate_taxable, dealer_rebate_taxable,
		       doc_fee_taxable, doc_fee_cap,
		       service_contract_taxable, gap_taxable, gap_separately_stated,
		       accessories_taxable, negative_equity_taxable,
		       vehicle_tax_scheme, vehicle_uses_local_sales_tax, lease_method,
		       policy_json
		FROM state_rules
		WHERE state_code = $1 AND effective_date <= $2 AND (end_date IS NULL OR end_date > $2)
		ORDER BY effective_date DESC
		LIMIT 1`

	row := r.pool.QueryRow(context.Background(), q, stateCode, asOfDate)
	rules, err := scanStateRules(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrStateRulesNotFound
		}
		return nil, err
	}
	return rules, nil
}

// Upsert inserts a new versioned StateRules row. It runs on the pool,
// outside any caller transaction, and does not set the EndDate of the row
// it supersedes.
func (r *StateRuleRepository) Upsert(rules *domain.StateRules) (*domain.StateRules, error) {
	policyJSON, err := json.Marshal(stateRulesRow{
		TradeInPolicy: rules.TradeInPolicy,
		LeaseRules:    rules.LeaseRules,
		Reciprocity:   rules.Reciprocity,
	})
	if err != nil {
		return nil, err
	}
	docFeeCap, err := nullableMoneyToNumeric(rules.DocFeeCap)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO state_rules
			(state_code, version, effective_date, end_date,
			 manufacturer_rebate_taxable, dealer_rebate_taxable,
			 doc_fee_taxable, doc_fee_cap,
			 service_contract_taxable, gap_taxable, gap_separately_stated,
			 accessories_taxable, negative_equity_taxable,
			 vehicle_tax_scheme, vehicle_uses_local_sales_tax, lease_method,
			 policy_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, state_code, version, effective_date, end_date,
		          manufacturer_rebate_taxable, dealer_rebate_taxable,
		          doc_fee_taxable, doc_fee_cap,
		          service_contract_taxable, gap_taxable, gap_separately_stated,
		          accessories_taxable, negative_equity_taxable,
		          vehicle_tax_scheme, vehicle_uses_local_sales_tax, lease_method,
		          policy_json`

	row := r.pool.QueryRow(context.Background(), q,
		rules.StateCode, rules.Version, rules.EffectiveDate, rules.EndDate,
		rules.ManufacturerRebateTaxable, rules.DealerRebateTaxable,
		rules.DocFeeTaxable, docFeeCap,
		rules.ServiceContractTaxable, rules.GapTaxable, rules.GapSeparatelyStated,
		rules.AccessoriesTaxable, rules.NegativeEquityTaxable,
		string(rules.VehicleTaxScheme), rules.VehicleUsesLocalSalesTax, string(rules.LeaseMethod),
		policyJSON,
	)
	return scanStateRules(row)
}

func scanStateRules(row pgx.Row) (*domain.StateRules, error) {
	var s domain.StateRules
	var docFeeCap pgtype.Numeric
	var scheme, leaseMethod string
	var policyJSON []byte

	if err := row.Scan(
		&s.ID, &s.StateCode, &s.Version, &s.EffectiveDate, &s.EndDate,
		&s.ManufacturerRebateTaxable, &s.DealerRebateTaxable,
		&s.DocFeeTaxable, &docFeeCap,
		&s.ServiceContractTaxable, &s.GapTaxable, &s.GapSeparatelyStated,
		&s.AccessoriesTaxable, &s.NegativeEquityTaxable,
		&scheme, &s.VehicleUsesLocalSalesTax, &leaseMethod,
		&policyJSON,
	); err != nil {
		return nil, err
	}

	s.DocFeeCap = numericToNullableMoney(docFeeCap)
	s.VehicleTaxScheme = domain.VehicleTaxScheme(scheme)
	s.LeaseMethod = domain.LeaseTaxMethod(leaseMethod)

	var policy stateRulesRow
	if err := json.Unmarshal(policyJSON, &policy); err != nil {
		return nil, err
	}
	s.TradeInPolicy = policy.TradeInPolicy
	s.LeaseRules = policy.LeaseRules
	s.Reciprocity = policy.Reciprocity

	return &s, nil
}
