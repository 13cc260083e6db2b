package util

import (
	"math"
)

// AllFinite reports whether none of vals is NaN or infinite
func AllFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CeilDiv divides a by b rounding up. b must be positive.
func CeilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
