// Package utils holds small shared parsing helpers.
package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"armkala-backend/internal/text"
)

var rxKeepNums = regexp.MustCompile(`[^\d.\-]`)

// ParseFloat parses spreadsheet numerics as they appear in the wild:
// Persian/Arabic digits, thousands separators, NBSP padding, parenthesized
// negatives. Returns ok=false for blanks and garbage.
func ParseFloat(s string) (float64, bool) {
	s = text.FoldDigits(s)
	if s == "" {
		return 0, false
	}
	repl := strings.NewReplacer(" ", "", " ", "", " ", "", "\t", "")
	s = repl.Replace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseInt parses a whole number the same way. Fractional values are
// rejected, not truncated.
func ParseInt(s string) (int, bool) {
	f, ok := ParseFloat(s)
	if !ok {
		return 0, false
	}
	if math.Mod(f, 1) != 0 {
		return 0, false
	}
	return int(f), true
}

// Round4 rounds to 4 decimal places, matching the precision the ledger
// stores for price basis values.
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
