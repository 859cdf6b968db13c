// Package keyword provides string similarity scoring and spelling suggestions
// over the catalog vocabulary.
package keyword

// LevenshteinDistance calculates the minimum number of single-character edits
// (insertions, deletions, or substitutions) required to change one string into another.
// This is a pure function with no side effects.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	runesA := []rune(a)
	runesB := []rune(b)
	lenA := len(runesA)
	lenB := len(runesB)
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Two rows are enough.
	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)
	for j := 0; j <= lenB; j++ {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		for j := 1; j <= lenB; j++ {
			cost := 0
			if runesA[i-1] != runesB[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[lenB]
}

// indel is the edit distance allowing only insertions and deletions:
// len(a) + len(b) - 2*LCS(a, b).
func indel(a, b []rune) int {
	return len(a) + len(b) - 2*lcsLength(a, b)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Ratio returns the normalized Indel similarity of a and b on a 0-100 scale.
// Two empty strings score 100.
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(total-indel(a, b)) / float64(total)
}

// PartialRatio returns the best Ratio between the shorter string and every
// window of the longer string with the same length. Windows that overhang the
// start or end of the longer string are scored too, so "abc" vs "cde" gets
// credit for the shared "c".
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}

	m := len(short)
	best := 0.0
	// Overhanging prefixes of the long string.
	for k := 1; k < m && k <= len(long); k++ {
		best = max(best, ratio(short, long[:k]))
	}
	for start := 0; start+m <= len(long); start++ {
		best = max(best, ratio(short, long[start:start+m]))
		if best == 100 {
			return best
		}
	}
	// Overhanging suffixes.
	for k := m - 1; k > 0; k-- {
		best = max(best, ratio(short, long[len(long)-k:]))
	}
	return best
}

// min3 returns the minimum of three integers.
func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
