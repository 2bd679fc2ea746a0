// Package pricing estimates the cost of agent invocations.
//
// Estimate is the authoritative quoting formula. DisplayPrice is a per-call
// price label shown next to agents and never summed into plan totals.
package pricing

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// OutputMultiplier is the expected output units produced per instruction character.
const OutputMultiplier = 10

// minDisplayPrice is the floor of DisplayPrice.
const minDisplayPrice = 0.001

// Estimate returns the estimated cost of sending instruction to an agent
// charging unitCost per output token. It is an approximation of output
// volume, not metered usage.
func Estimate(instruction string, unitCost float64) float64 {
	if unitCost <= 0 || math.IsNaN(unitCost) {
		return 0
	}
	return float64(utf8.RuneCountInString(instruction)) * OutputMultiplier * unitCost
}

// DisplayPrice renders the display-only price label for an agent.
func DisplayPrice(unitCost float64) string {
	return fmt.Sprintf("$%.6f", math.Max(minDisplayPrice, unitCost*1000))
}
