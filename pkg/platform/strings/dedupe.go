// Package strings holds small helpers for list-valued settings.
package strings

import (
	"strings"
)

// SplitList splits a separated setting such as "a, b,,a" into its distinct
// non-empty elements, in first-seen order.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep), false)
}

// DedupeAndTrim trims each element and drops empties and repeats. With fold
// set, elements are lowercased before comparison and in the result.
func DedupeAndTrim(values []string, fold bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
