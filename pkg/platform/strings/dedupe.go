// Package strings provides string slice utilities shared by the eligibility
// packages.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  PMAY ", "STATE_HOUSING", "PMAY", "", "  "})
//	// Returns: []string{"PMAY", "STATE_HOUSING"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	return Merge(values)
}

// Merge concatenates the lists, dropping blanks and duplicates. The first
// occurrence wins, so earlier lists take precedence in the result order.
// Always returns a non-nil slice.
//
// Example:
//
//	Merge([]string{"STATE_HOUSING"}, []string{"PMAY", "STATE_HOUSING"})
//	// Returns: []string{"STATE_HOUSING", "PMAY"}
func Merge(lists ...[]string) []string {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	seen := make(map[string]struct{}, n)
	result := make([]string, 0, n)

	for _, l := range lists {
		for _, v := range l {
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; !ok {
				seen[trimmed] = struct{}{}
				result = append(result, trimmed)
			}
		}
	}

	return result
}

// Truncate returns at most n leading elements of values as a new slice.
func Truncate(values []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(values) < n {
		n = len(values)
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}
