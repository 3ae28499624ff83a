package match

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Similarity scores two matching keys in [0,1]. Multi-word titles compare
// as token sets (order-insensitive Jaccard); degenerate single-word titles
// fall back to Jaro-Winkler, where a token set of size one would only ever
// score 0 or 1. Pure and deterministic, no locale-dependent string ops.
func Similarity(a, b string) float64 {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	if len(at) == 1 && len(bt) == 1 {
		return matchr.JaroWinkler(at[0], bt[0], false)
	}
	return jaccard(at, bt)
}

func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	both := make(map[string]bool, len(b))
	inter := 0
	for _, t := range b {
		if both[t] {
			continue
		}
		both[t] = true
		if set[t] {
			inter++
		}
	}
	union := len(set)
	for t := range both {
		if !set[t] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
