// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fuzzy scores string similarity on a 0..100 scale.
//
// Ratio compares two strings as wholes after normalization; TokenSetRatio
// compares their word sets so that word order and repeated words do not
// lower the score. Both are built on normalized Levenshtein similarity.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

var levenshtein = metrics.NewLevenshtein()

// Normalize lowercases s, turns every rune that is not a letter or digit
// into a space, and collapses whitespace runs.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Ratio returns the similarity of a and b after normalization. Empty inputs
// score 0.
func Ratio(a, b string) float64 {
	return rawRatio(Normalize(a), Normalize(b))
}

// NormalizedRatio is Ratio for inputs already passed through Normalize.
func NormalizedRatio(a, b string) float64 {
	return rawRatio(a, b)
}

// RatioBound is the highest Ratio two normalized strings of lenA and lenB
// runes can reach: the edit distance is at least the length difference.
func RatioBound(lenA, lenB int) float64 {
	if lenA == 0 || lenB == 0 {
		return 0
	}
	return float64(min(lenA, lenB)) / float64(max(lenA, lenB)) * 100
}

func rawRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	return strutil.Similarity(a, b, levenshtein) * 100
}

// TokenSetRatio compares the word sets of a and b. When the shared words
// cover one side completely the score is 100; otherwise it is the best
// ratio between the shared words and each side's full sorted word list.
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, diffAB, diffBA []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			diffAB = append(diffAB, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			diffBA = append(diffBA, tok)
		}
	}

	if len(inter) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(inter)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	sect := strings.Join(inter, " ")
	combinedAB := strings.TrimSpace(sect + " " + strings.Join(diffAB, " "))
	combinedBA := strings.TrimSpace(sect + " " + strings.Join(diffBA, " "))

	best := rawRatio(combinedAB, combinedBA)
	if s := rawRatio(sect, combinedAB); s > best {
		best = s
	}
	if s := rawRatio(sect, combinedBA); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(Normalize(s)) {
		set[tok] = true
	}
	return set
}
