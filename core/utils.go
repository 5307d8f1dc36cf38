package core

import (
	"math"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Percentage returns part/total*100 rounded to `places` decimals; 0 when total is 0.
func Percentage(part, total int, places int) float64 {
	if total <= 0 {
		return 0
	}
	return Round(float64(part)/float64(total)*100, places)
}

// Round rounds half away from zero.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
