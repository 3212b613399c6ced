package enums

import "fmt"

// WholesaleUnit is the denomination a product is sold in. Each unit maps to a
// fixed number of physical pieces; that multiplier is the single source of
// truth for per-piece pricing and minimum-quantity enforcement.
type WholesaleUnit string

const (
	WholesaleUnitDozen WholesaleUnit = "DZ"
	WholesaleUnitPiece WholesaleUnit = "PC"
	WholesaleUnitCase  WholesaleUnit = "CX"
)

var validWholesaleUnits = []WholesaleUnit{
	WholesaleUnitDozen,
	WholesaleUnitPiece,
	WholesaleUnitCase,
}

// String implements fmt.Stringer.
func (u WholesaleUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known WholesaleUnit.
func (u WholesaleUnit) IsValid() bool {
	for _, candidate := range validWholesaleUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// PhysicalUnits returns how many physical pieces one wholesale unit holds.
func (u WholesaleUnit) PhysicalUnits() int {
	switch u {
	case WholesaleUnitDozen:
		return 12
	case WholesaleUnitCase:
		return 100
	case WholesaleUnitPiece:
		return 1
	default:
		return 1
	}
}

// ParseWholesaleUnit converts raw input into a WholesaleUnit.
func ParseWholesaleUnit(value string) (WholesaleUnit, error) {
	for _, candidate := range validWholesaleUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wholesale unit %q", value)
}
