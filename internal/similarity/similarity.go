// Package similarity scores how close two strings are using the Levenshtein
// edit distance.
package similarity

// Distance returns the Levenshtein edit distance between a and b, where an
// insertion, a deletion and a substitution each cost 1. Strings are compared
// rune by rune.
func Distance(a, b string) int {
	return distance([]rune(a), []rune(b))
}

func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Similarity returns a score in [0, 1]: 1 minus the edit distance divided by
// the length of the longer string. Two empty strings are identical (1.0).
//
// The score is case sensitive; callers normalize before comparing.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := max(len(ra), len(rb))
	if longer == 0 {
		return 1.0
	}
	return float64(longer-distance(ra, rb)) / float64(longer)
}
