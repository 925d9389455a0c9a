package facematch

import (
	"cmp"
	"slices"
)

// Rank returns the matches ordered by similarity, best first.
// Equal scores keep their input order, so ranking is idempotent. The input is not modified.
func Rank(matches []MatchResult) []MatchResult {
	out := make([]MatchResult, len(matches))
	copy(out, matches)
	slices.SortStableFunc(out, func(a, b MatchResult) int {
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})
	return out
}
