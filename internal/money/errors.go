package money

import "errors"

// Typed errors for the decimal arithmetic kernel (C1). Kept local to this
// package rather than importing internal/domain, since domain's own types
// (Jurisdiction, StateRules, ...) embed Money/Rate and would otherwise form
// an import cycle; callers that need the domain error taxonomy wrap these
// with domain errors at the boundary instead.
var (
	// ErrNegativeAmount is returned when a non-negative-only operand (a
	// price, a rate, a fee) is constructed from a negative value.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrArithmetic is returned for an otherwise-undefined operation, such
	// as division by zero.
	ErrArithmetic = errors.New("arithmetic operation failed")

	// ErrInvalidInput is returned when a string cannot be parsed as a
	// decimal at all.
	ErrInvalidInput = errors.New("invalid decimal input")
)
