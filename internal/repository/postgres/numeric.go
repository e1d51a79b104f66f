package postgres

import (
	"github.com/dafibh/dealdesk-backend/internal/money"
	"github.com/jackc/pgx/v5/pgtype"
)

// moneyToNumeric and rateToNumeric mirror the teacher's
// decimalToPgNumeric/pgNumericToDecimal pair, adapted to round-trip through
// money.Money/money.Rate instead of a bare decimal.Decimal so no caller
// outside this package ever touches pgtype.Numeric directly.
func moneyToNumeric(m money.Money) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(m.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func numericToMoney(n pgtype.Numeric) money.Money {
	if !n.Valid || n.Int == nil {
		return money.Zero()
	}
	return money.FromDecimalBigInt(n.Int, n.Exp)
}

func rateToNumeric(r money.Rate) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(r.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func numericToRate(n pgtype.Numeric) money.Rate {
	if !n.Valid || n.Int == nil {
		return money.ZeroRate()
	}
	return money.RateFromDecimalBigInt(n.Int, n.Exp)
}

func nullableMoneyToNumeric(m *money.Money) (pgtype.Numeric, error) {
	if m == nil {
		return pgtype.Numeric{Valid: false}, nil
	}
	return moneyToNumeric(*m)
}

func numericToNullableMoney(n pgtype.Numeric) *money.Money {
	if !n.Valid {
		return nil
	}
	m := numericToMoney(n)
	return &m
}
