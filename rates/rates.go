package rates

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRate is returned when a rate is missing or non-positive
	ErrInvalidRate = errors.New("invalid rate")

	// ErrDivisionByZero is returned when a conversion would divide by a zero rate
	ErrDivisionByZero = errors.New("division by zero rate")

	// ErrAmountOutOfRange is returned for amounts too large or too precise to handle
	ErrAmountOutOfRange = errors.New("amount out of range")

	errUnknownDirection = errors.New("unknown conversion direction")
)

// Direction is the conversion direction between the paired amount fields
type Direction int

const (
	RisToVes Direction = iota
	VesToRis
	RisToBrl
)

func (d Direction) String() string {
	switch d {
	case RisToVes:
		return "ris_to_ves"
	case VesToRis:
		return "ves_to_ris"
	case RisToBrl:
		return "ris_to_brl"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection parses the wire name of a direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "ris_to_ves":
		return RisToVes, nil
	case "ves_to_ris":
		return VesToRis, nil
	case "ris_to_brl":
		return RisToBrl, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownDirection, s)
	}
}

// Table holds the three published conversion rates.
// A Table is never mutated once built, refreshes replace it wholesale
type Table struct {
	RisToVes decimal.Decimal `json:"ris_to_ves"`
	VesToRis decimal.Decimal `json:"ves_to_ris"`
	RisToBrl decimal.Decimal `json:"ris_to_brl"`
}

// NewTable builds a validated rate table
func NewTable(risToVes, vesToRis, risToBrl decimal.Decimal) (Table, error) {
	t := Table{
		RisToVes: risToVes,
		VesToRis: vesToRis,
		RisToBrl: risToBrl,
	}

	if err := t.Validate(); err != nil {
		return Table{}, err
	}

	return t, nil
}

// Validate makes sure every rate in the table is strictly positive
func (t Table) Validate() error {
	fields := []struct {
		name string
		rate decimal.Decimal
	}{
		{"ris_to_ves", t.RisToVes},
		{"ves_to_ris", t.VesToRis},
		{"ris_to_brl", t.RisToBrl},
	}

	for _, f := range fields {
		if !f.rate.IsPositive() {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidRate, f.name, f.rate)
		}
	}

	return nil
}

// Rate returns the rate that drives the given direction
func (t Table) Rate(d Direction) (decimal.Decimal, error) {
	switch d {
	case RisToVes:
		return t.RisToVes, nil
	case VesToRis:
		return t.VesToRis, nil
	case RisToBrl:
		return t.RisToBrl, nil
	default:
		return decimal.Zero, errUnknownDirection
	}
}

// Equal reports whether both tables carry the same rates
func (t Table) Equal(o Table) bool {
	return t.RisToVes.Equal(o.RisToVes) &&
		t.VesToRis.Equal(o.VesToRis) &&
		t.RisToBrl.Equal(o.RisToBrl)
}
