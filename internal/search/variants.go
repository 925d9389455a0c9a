package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTerm trims the term, collapses inner whitespace and converts it to NFC
// so visually identical inputs produce identical queries.
func NormalizeTerm(term string) string {
	return norm.NFC.String(strings.Join(strings.Fields(term), " "))
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// FoldTerm reduces a term to a comparison key: lowercase, no diacritics,
// dashes and underscores read as spaces.
func FoldTerm(term string) string {
	term = strings.ToLower(RemoveDiacritics(term))
	term = strings.NewReplacer("-", " ", "_", " ").Replace(term)
	return strings.Join(strings.Fields(term), " ")
}

// QueryVariants derives the ordered list of queries for a base term:
// the term itself followed by "<term> <suffix>" for each suffix.
// The result is deterministic for a given term and suffix list.
func QueryVariants(baseTerm string, suffixes []string) []string {
	base := NormalizeTerm(baseTerm)
	if base == "" {
		return nil
	}

	seen := map[string]bool{base: true}
	variants := []string{base}
	for _, suffix := range suffixes {
		suffix = NormalizeTerm(suffix)
		if suffix == "" {
			continue
		}
		q := base + " " + suffix
		if seen[q] {
			continue
		}
		seen[q] = true
		variants = append(variants, q)
	}
	return variants
}
