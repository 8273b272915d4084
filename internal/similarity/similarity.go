// Package similarity implements order-insensitive fuzzy string similarity on a 0-100 scale.
//
// Ratio is the normalized Indel similarity (insertions and deletions only), so two strings share a score of
// 100 * (1 - distance / (len(a) + len(b))). TokenSetRatio compares the shared and unshared whitespace tokens
// of two strings, which makes it insensitive to word order and to one side carrying extra words.
package similarity

import (
	"sort"
	"strings"
)

// Ratio returns the normalized Indel similarity of a and b in the range 0-100.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	return normalized(indelDistance(ra, rb), len(ra)+len(rb))
}

// TokenSetRatio scores a and b by their whitespace token sets. If the intersection is non-empty and one
// set is a subset of the other the score is 100. Otherwise it is the best of comparing the sorted
// differences against each other and the sorted intersection against each side.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var intersection, diffAB, diffBA []string
	for t := range tokensA {
		if tokensB[t] {
			intersection = append(intersection, t)
		} else {
			diffAB = append(diffAB, t)
		}
	}
	for t := range tokensB {
		if !tokensA[t] {
			diffBA = append(diffBA, t)
		}
	}

	if len(intersection) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(intersection)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	ab := []rune(strings.Join(diffAB, " "))
	ba := []rune(strings.Join(diffBA, " "))
	sectLen := len([]rune(strings.Join(intersection, " ")))

	// Lengths of "<intersection> <diff>" for each side; the separator only exists with a non-empty intersection.
	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + len(ab)
	sectBALen := sectLen + sep + len(ba)

	result := normalized(indelDistance(ab, ba), sectABLen+sectBALen)
	if sectLen == 0 {
		return result
	}

	// The intersection is a prefix of both joined strings, so their distance is just the appended diff.
	sectABRatio := normalized(sep+len(ab), sectLen+sectABLen)
	sectBARatio := normalized(sep+len(ba), sectLen+sectBALen)

	return max(result, sectABRatio, sectBARatio)
}

// TokenCount returns the number of whitespace-separated tokens in s.
func TokenCount(s string) int {
	return len(strings.Fields(s))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

func normalized(distance, lenSum int) float64 {
	if lenSum == 0 {
		return 100
	}
	return 100 * (1 - float64(distance)/float64(lenSum))
}

// indelDistance is len(a)+len(b) minus twice their longest common subsequence.
func indelDistance(a, b []rune) int {
	return len(a) + len(b) - 2*lcsLength(a, b)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for _, ra := range a {
		for j, rb := range b {
			if ra == rb {
				curr[j+1] = prev[j] + 1
			} else {
				curr[j+1] = max(prev[j+1], curr[j])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
