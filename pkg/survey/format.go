package survey

import (
	"math"
	"strconv"
	"strings"
)

// FormatDecimal renders v with the shortest representation that round-trips and always
// keeps a decimal point, so 50 prints as "50.0". Data files written for the inversion
// tool use this form for coordinates and elevations.
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// FormatNumber renders v without a forced decimal point, so 115 prints as "115".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
