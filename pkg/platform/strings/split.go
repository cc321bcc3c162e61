// Package strings holds small string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits v on sep, trims each element and drops empty and repeated
// entries. Order of first occurrence is kept.
func SplitList(v, sep string) []string {
	parts := strings.Split(v, sep)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
