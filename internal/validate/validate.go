// Package validate implements the Validation Layer (C10): every external
// input is checked here before any business logic runs. Failures aggregate
// into a single domain.ValidationError listing every field issue at once —
// no partial acceptance.
package validate

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	"github.com/dafibh/dealdesk-backend/internal/domain"
	"github.com/dafibh/dealdesk-backend/internal/money"
)

var (
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	statePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	phonePattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
)

const (
	minTermMonths = 12
	maxTermMonths = 84
	maxAPRPercent = 35
)

// DealInput runs every rule spec §4.10 enumerates against a DealInput,
// returning an aggregated *domain.ValidationError (nil if none). Term and
// APR out-of-range are advisory warnings, returned separately, not
// validation failures.
func DealInput(d domain.DealInput) (warnings []string, err error) {
	verr := domain.NewValidationError()

	if d.VehiclePrice.IsNegative() {
		verr.Add("vehiclePrice", "must not be negative")
	}
	if d.DealerDiscount.IsNegative() {
		verr.Add("dealerDiscount", "must not be negative")
	}
	if d.TradeAllowance.IsNegative() {
		verr.Add("tradeAllowance", "must not be negative")
	}
	if d.AccessoriesTotal.IsNegative() {
		verr.Add("accessoriesTotal", "must not be negative")
	}

	if !zipPattern.MatchString(d.ZipCode) {
		verr.Add("zipCode", "must match ^\\d{5}(-\\d{4})?$")
	}
	if !statePattern.MatchString(d.StateCode) {
		verr.Add("stateCode", "must be a 2-letter state code")
	}

	for i, fee := range d.Fees {
		if fee.Amount.IsNegative() {
			verr.Add(fieldIndex("fees", i, "amount"), "must not be negative")
		}
	}
	for i, p := range d.Products {
		if p.Price.IsNegative() {
			verr.Add(fieldIndex("products", i, "price"), "must not be negative")
		}
	}

	switch d.DealType {
	case domain.DealTypeRetail:
		if d.Financing == nil {
			verr.Add("financing", "required for a RETAIL deal")
		} else {
			if d.Financing.TermMonths < minTermMonths || d.Financing.TermMonths > maxTermMonths {
				warnings = append(warnings, "financing term outside the 12-84 month advisory range")
			}
			aprPercent := d.Financing.APR.Decimal().Mul(money.NewMoneyFromInt(100).Decimal())
			if aprPercent.IsNegative() || aprPercent.GreaterThan(money.NewMoneyFromInt(maxAPRPercent).Decimal()) {
				warnings = append(warnings, "APR outside the 0-35% advisory range")
			}
		}
	case domain.DealTypeLease:
		if d.Leasing == nil {
			verr.Add("leasing", "required for a LEASE deal")
		} else if d.Leasing.TermMonths < minTermMonths || d.Leasing.TermMonths > maxTermMonths {
			warnings = append(warnings, "lease term outside the 12-84 month advisory range")
		}
	case domain.DealTypeCash:
		// no financing/leasing terms required
	default:
		verr.Add("dealType", "must be one of RETAIL, LEASE, CASH")
	}

	if verr.HasErrors() {
		return warnings, verr
	}
	return warnings, nil
}

// VIN checks a 17-character VIN per ISO 3779, including the North American
// check-digit rule (position 9).
func VIN(vin string) error {
	verr := domain.NewValidationError()
	vin = strings.ToUpper(strings.TrimSpace(vin))

	if len(vin) != 17 {
		verr.Add("vin", "must be exactly 17 characters")
		return verr
	}
	for _, c := range vin {
		if c == 'I' || c == 'O' || c == 'Q' {
			verr.Add("vin", "must not contain I, O, or Q")
			return verr
		}
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
			verr.Add("vin", "must contain only digits and uppercase letters")
			return verr
		}
	}
	if !checkDigitValid(vin) {
		verr.Add("vin", "check digit (position 9) does not match")
		return verr
	}
	return nil
}

var vinTransliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

var vinWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// checkDigitValid implements the ISO 3779 / NHTSA VIN check-digit
// algorithm: weighted sum of transliterated characters mod 11, '0'-'9' or
// 'X' for 10.
func checkDigitValid(vin string) bool {
	sum := 0
	for i := 0; i < 17; i++ {
		c := vin[i]
		var value int
		switch {
		case c >= '0' && c <= '9':
			value = int(c - '0')
		default:
			v, ok := vinTransliteration[c]
			if !ok {
				return false
			}
			value = v
		}
		sum += value * vinWeights[i]
	}
	remainder := sum % 11
	checkChar := vin[8]
	if remainder == 10 {
		return checkChar == 'X'
	}
	return int(checkChar-'0') == remainder
}

// Email validates RFC 5322 syntax via net/mail.
func Email(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		verr := domain.NewValidationError()
		verr.Add("email", "must be a valid email address")
		return verr
	}
	return nil
}

// Phone validates and normalizes a US phone number to "(nnn) nnn-nnnn".
func Phone(phone string) (string, error) {
	digits := make([]byte, 0, 10)
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		verr := domain.NewValidationError()
		verr.Add("phone", "must be a valid 10-digit US phone number")
		return "", verr
	}
	normalized := "(" + string(digits[0:3]) + ") " + string(digits[3:6]) + "-" + string(digits[6:10])
	if !phonePattern.MatchString(normalized) {
		verr := domain.NewValidationError()
		verr.Add("phone", "must normalize to (nnn) nnn-nnnn")
		return "", verr
	}
	return normalized, nil
}

func fieldIndex(prefix string, i int, field string) string {
	return prefix + "[" + strconv.Itoa(i) + "]." + field
}
