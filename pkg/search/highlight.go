package search

import "github.com/sahilm/fuzzy"

// Highlights returns, for each item that fuzzily matches q, the byte
// offsets of the matched characters. Items are not re-ranked: the
// registry's order stays authoritative.
func Highlights(q string, items []string) map[int][]int {
	out := make(map[int][]int)
	if q == "" {
		return out
	}
	for _, m := range fuzzy.Find(q, items) {
		out[m.Index] = m.MatchedIndexes
	}
	return out
}
