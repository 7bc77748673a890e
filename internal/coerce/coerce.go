// Package coerce converts raw page tokens into rate values.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the longest decimal prefix, the way a lenient float
// parser reads "2.5 /kg" as 2.5
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// Rate parses a raw token into a value. A nil token, an empty or non-numeric
// token, and non-finite numbers all yield nil. Rate never fails.
func Rate(token *string) *float64 {
	if token == nil {
		return nil
	}
	return RateString(*token)
}

// RateString is Rate for a token that is known to be present
func RateString(token string) *float64 {
	s := strings.TrimSpace(token)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	num := leadingNumber.FindString(s)
	if num == "" {
		return nil
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Format renders a coerced value for console output
func Format(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
