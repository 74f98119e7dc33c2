package enums

import "fmt"

// QuantityUnit is the unit offers are quoted in.
type QuantityUnit string

const (
	QuantityUnitPieces QuantityUnit = "pieces"
	QuantityUnitKg     QuantityUnit = "kg"
	QuantityUnitGrams  QuantityUnit = "grams"
	QuantityUnitLiters QuantityUnit = "liters"
	QuantityUnitMeters QuantityUnit = "meters"
	QuantityUnitBoxes  QuantityUnit = "boxes"
	QuantityUnitPacks  QuantityUnit = "packs"
	QuantityUnitSets   QuantityUnit = "sets"
)

// DefaultQuantityUnit is applied when an offer omits the unit.
const DefaultQuantityUnit = QuantityUnitPieces

var validQuantityUnits = []QuantityUnit{
	QuantityUnitPieces,
	QuantityUnitKg,
	QuantityUnitGrams,
	QuantityUnitLiters,
	QuantityUnitMeters,
	QuantityUnitBoxes,
	QuantityUnitPacks,
	QuantityUnitSets,
}

// String implements fmt.Stringer.
func (q QuantityUnit) String() string {
	return string(q)
}

// IsValid reports whether the unit is recognized.
func (q QuantityUnit) IsValid() bool {
	for _, candidate := range validQuantityUnits {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuantityUnit converts a raw string into a QuantityUnit.
func ParseQuantityUnit(value string) (QuantityUnit, error) {
	for _, candidate := range validQuantityUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity unit %q", value)
}
