// Package strings provides string slice utilities shared by profile and job
// normalization.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// ContainsFold reports whether any element of haystack and the needle overlap
// as case-insensitive substrings, in either direction. This is the overlap rule
// used for skill and accommodation matching.
func ContainsFold(haystack []string, needle string) bool {
	n := strings.ToLower(strings.TrimSpace(needle))
	if n == "" {
		return false
	}
	for _, h := range haystack {
		hl := strings.ToLower(strings.TrimSpace(h))
		if hl == "" {
			continue
		}
		if strings.Contains(hl, n) || strings.Contains(n, hl) {
			return true
		}
	}
	return false
}
