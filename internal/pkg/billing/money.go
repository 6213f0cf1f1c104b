package billing

import "math"

// MinChargeAmount is the smallest chargeable amount in major currency units.
const MinChargeAmount = 0.50

// ToMinorUnits converts a major-unit amount to the remote API's minor-unit
// convention (cents for decimal currencies).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ToMajorUnits converts a minor-unit amount back to major units.
func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// ValidCurrency reports whether code looks like an ISO 4217 currency code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
