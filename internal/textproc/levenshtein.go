// Package textproc holds the fuzzy text comparison used to collapse
// near-identical excerpts coming from OCR-noisy full-text backends.
package textproc

import "math"

// Distance is the Levenshtein distance between s and t, counted in runes.
// It fills the full (m+1)×(n+1) matrix; use DistanceTwoRows when memory
// matters.
func Distance(s, t string) int {
	a, b := []rune(s), []rune(t)
	m, n := len(a), len(b)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
		d[i][0] = i
	}
	for j := 1; j <= n; j++ {
		d[0][j] = j
	}

	for j := 1; j <= n; j++ {
		for i := 1; i <= m; i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}
	return d[m][n]
}

// DistanceTwoRows computes the same value as Distance keeping only two rows
// sized by the shorter string.
func DistanceTwoRows(s, t string) int {
	a, b := orient([]rune(s), []rune(t))
	v0 := make([]int, len(b)+1)
	v1 := make([]int, len(b)+1)
	for j := range v0 {
		v0[j] = j
	}
	for i := range a {
		nextRow(a[i], b, i, v0, v1)
		v0, v1 = v1, v0
	}
	return v0[len(b)]
}

// NormalizedDistance divides Distance by the length of the shorter string.
// Two empty strings are at distance 0; an empty and a non-empty string are
// infinitely far apart.
func NormalizedDistance(s, t string) float64 {
	m, n := runeLen(s), runeLen(t)
	shorter := min(m, n)
	if shorter == 0 {
		if m == n {
			return 0
		}
		return math.Inf(1)
	}
	return float64(Distance(s, t)) / float64(shorter)
}

// nextRow fills v1 as row i+1 of the DP matrix from row v0 and returns the
// smallest value of the new row.
func nextRow(r rune, b []rune, i int, v0, v1 []int) int {
	v1[0] = i + 1
	lowest := v1[0]
	for j := range b {
		cost := 1
		if r == b[j] {
			cost = 0
		}
		v1[j+1] = min(v0[j+1]+1, v1[j]+1, v0[j]+cost)
		if v1[j+1] < lowest {
			lowest = v1[j+1]
		}
	}
	return lowest
}

// orient returns the pair with the shorter slice second so the DP rows
// stay as small as possible.
func orient(a, b []rune) ([]rune, []rune) {
	if len(b) > len(a) {
		return b, a
	}
	return a, b
}

func runeLen(s string) int {
	return len([]rune(s))
}
