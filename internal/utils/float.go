package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// groupedNumber matches comma thousands grouping such as "1,234" or "-12,345.5"
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber parses a spreadsheet cell as a float64.
// Empty cells, "NaN", infinities and non-numeric text return false.
// Comma thousands grouping ("1,234.5") is accepted; any other comma, such as a
// decimal comma ("21,5"), makes the cell unparseable.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if !groupedNumber.MatchString(s) {
			return 0, false
		}
		v, err = strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0, false
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}
