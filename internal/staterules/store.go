// Package staterules implements the State Rule Store (C3): versioned,
// point-in-time per-state tax policy, with a database-backed primary tier
// and an in-memory built-in fallback tier.
package staterules

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/dealdesk-backend/internal/domain"
)

// Store resolves StateRules for a state code as of a given date, checking
// the database first and the built-in table second.
type Store struct {
	repo domain.StateRuleRepository
}

// NewStore constructs a Store over the given repository. repo may be nil,
// in which case only the built-in table is consulted (used by tests and by
// any deployment that has not yet populated overrides).
func NewStore(repo domain.StateRuleRepository) *Store {
	return &Store{repo: repo}
}

// Get returns the StateRules in effect for stateCode as of asOfDate.
// Lookup is case-insensitive. The database tier is authoritative when it
// has a covering row; the built-in table is used only when it does not.
func (s *Store) Get(stateCode string, asOfDate time.Time) (*domain.StateRules, error) {
	code := strings.ToUpper(strings.TrimSpace(stateCode))
	if len(code) != 2 {
		return nil, fmt.Errorf("%w: malformed state code %q", domain.ErrInvalidInput, stateCode)
	}

	if s.repo != nil {
		r, err := s.repo.Get(code, asOfDate)
		if err == nil && r != nil {
			return r, nil
		}
		if err != nil && !errors.Is(err, domain.ErrStateRulesNotFound) {
			return nil, err
		}
	}

	if builtin, ok := lookupBuiltin(code); ok {
		builtin.StateCode = code
		return &builtin, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedState, code)
}
