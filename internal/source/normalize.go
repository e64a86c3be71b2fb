package source

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// CleanText collapses runs of whitespace (including newlines) into single
// spaces and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParsePrice extracts the first decimal amount from a price string like
// "$1,299.99" or "Sale: $599.99". Returns nil when no usable number is
// present, so callers record "no price" rather than a zero price.
func ParsePrice(s string) *float64 {
	match := priceRe.FindString(s)
	if match == "" {
		return nil
	}
	match = strings.ReplaceAll(match, ",", "")
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// ParseYear extracts a plausible model year (1950-2049) from a string.
// Returns 0 when none is found.
func ParseYear(s string) int {
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if len(field) != 4 {
			continue
		}
		y, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		if y >= 1950 && y < 2050 {
			return y
		}
	}
	return 0
}
