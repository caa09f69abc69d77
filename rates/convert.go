package rates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// displayPlaces is the number of decimals every derived amount is shown with
const displayPlaces = 2

// maxAmountExponent bounds the decimal exponent of an accepted amount, in both directions
const maxAmountExponent = 18

// divisionPrecision bounds intermediate quotients before display rounding
const divisionPrecision = 16

// Field identifies which amount field the user is currently editing
type Field int

const (
	Input Field = iota
	Output
)

func (f Field) String() string {
	if f == Output {
		return "output"
	}

	return "input"
}

// ParseField parses the wire name of an amount field
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "input":
		return Input, true
	case "output":
		return Output, true
	default:
		return Input, false
	}
}

// ParseAmount parses a user-typed amount.
// Anything that isn't a plain non-negative number (empty, "abc", "-3", "1e5") is zero.
// Partial entries such as "12." or ".5" are accepted, and a comma
// is taken as the decimal separator
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	if !isPlainDecimal(s) {
		return decimal.Zero
	}

	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}

	return d
}

// CheckAmount rejects decoded amounts whose exponent is out of range (e.g. "1e50000000").
// Arithmetic on them would materialize every digit
func CheckAmount(d decimal.Decimal) error {
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return fmt.Errorf("%w: exponent %d", ErrAmountOutOfRange, exp)
	}

	return nil
}

// isPlainDecimal reports whether s holds only digits and at most one dot.
// Signs and exponents ("1e9") are rejected
func isPlainDecimal(s string) bool {
	var digits, dots int

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}

	return digits > 0 && dots <= 1
}

// Format renders an amount with exactly two decimals, rounding half away from zero
func Format(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}

// Convert computes the amount of the derived field from the driven field.
//
// Driven by input: RisToVes and RisToBrl multiply, VesToRis divides.
// Driven by output: the inverse operation.
// The result is not rounded; use Format for display
func Convert(amount decimal.Decimal, dir Direction, table Table, driven Field) (decimal.Decimal, error) {
	rate, err := table.Rate(dir)
	if err != nil {
		return decimal.Zero, err
	}

	// VesToRis is quoted as VES per RIS, so it divides on the input side
	multiply := dir != VesToRis
	if driven == Output {
		multiply = !multiply
	}

	if !multiply {
		if rate.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}

		if rate.IsNegative() {
			return decimal.Zero, ErrInvalidRate
		}

		return amount.DivRound(rate, divisionPrecision), nil
	}

	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}

	return amount.Mul(rate), nil
}

// ConvertString parses the raw driven amount and returns the formatted derived amount.
// On a conversion error the derived field is left blank
func ConvertString(raw string, dir Direction, table Table, driven Field) (string, error) {
	out, err := Convert(ParseAmount(raw), dir, table, driven)
	if err != nil {
		return "", err
	}

	return Format(out), nil
}
