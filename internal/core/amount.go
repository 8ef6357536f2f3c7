// Package core holds the domain model, the aggregation engine and the budget
// evaluator. Everything in this package is pure: no I/O, no ambient clock, no
// shared state between calls.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user input to a non-negative amount. Both dot and comma
// decimal separators are accepted. Unparsable, negative or non-finite input
// coerces to 0 so that aggregation downstream never sees NaN.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
