package player

import "math"

// RoundMoney rounds a monetary value to 2 decimals. Applied at transaction
// and display boundaries only, never mid-calculation.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
