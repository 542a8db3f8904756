// Package strings holds small string slice helpers shared by importers.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value, drops blanks and exact repeats, and keeps
// the first occurrence order. Comparison is case-sensitive, like usernames.
func DedupeAndTrim(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
