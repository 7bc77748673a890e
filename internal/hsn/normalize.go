// Package hsn turns raw catalogue values into canonical six digit HSN codes.
package hsn

import (
	"fmt"
	"math"
	"strconv"
)

// CanonicalLength is the width of a normalized code
const CanonicalLength = 6

// Stringify renders a raw catalogue value the way it is stored.
// Integral floats lose their fractional part ("1234.0" becomes "1234").
func Stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Normalize maps one code to its canonical form. Five character codes get a
// single leading zero, six character codes pass through, anything else is
// rejected with ok == false.
func Normalize(code string) (string, bool) {
	switch len(code) {
	case CanonicalLength:
		return code, true
	case CanonicalLength - 1:
		return "0" + code, true
	default:
		return "", false
	}
}

// NormalizeAll stringifies and normalizes raw values, preserving order and
// silently dropping values that cannot be canonicalized.
func NormalizeAll(raw []any) []string {
	codes := make([]string, 0, len(raw))
	for _, r := range raw {
		if code, ok := Normalize(Stringify(r)); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// NormalizeStrings is NormalizeAll for codes that are already strings
func NormalizeStrings(raw []string) []string {
	codes := make([]string, 0, len(raw))
	for _, r := range raw {
		if code, ok := Normalize(r); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// Unique drops repeated codes, keeping the first occurrence
func Unique(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// StoreKey is the integer the destination tables are keyed by
func StoreKey(code string) (int64, error) {
	key, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("hsn code %q is not numeric: %w", code, err)
	}
	return key, nil
}
