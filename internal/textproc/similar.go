package textproc

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultThreshold is the normalized distance below which two excerpts are
// considered the same passage.
const DefaultThreshold = 0.22

var (
	wrapJoin   = regexp.MustCompile(`[¬-]\s*`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Clean undoes the usual OCR artefacts of full-text backends: it joins
// words split by a line-end dash, turns line breaks into spaces and
// collapses runs of whitespace.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = wrapJoin.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\n", " ")
	return whitespace.ReplaceAllString(text, " ")
}

// Matcher decides whether two strings are near-duplicates.
type Matcher struct {
	Threshold float64
}

// DefaultMatcher uses DefaultThreshold.
var DefaultMatcher = Matcher{Threshold: DefaultThreshold}

// NewMatcher returns a Matcher with the given threshold, which must lie in (0, 1].
func NewMatcher(threshold float64) (Matcher, error) {
	if threshold <= 0 || threshold > 1 {
		return Matcher{}, fmt.Errorf("textproc: threshold %v out of range (0, 1]", threshold)
	}
	return Matcher{Threshold: threshold}, nil
}

// IsSimilar reports whether s and t are near-duplicates using DefaultThreshold.
func IsSimilar(s, t string) bool {
	return DefaultMatcher.IsSimilar(s, t)
}

// IsSimilar compares the cleaned, lowercased forms of s and t. The edit
// distance must stay strictly below Threshold × (length of the shorter
// string). The DP pass stops as soon as a whole row is already at or over
// that bound.
func (m Matcher) IsSimilar(s, t string) bool {
	s = strings.ToLower(Clean(s))
	t = strings.ToLower(Clean(t))
	if s == t {
		return true
	}

	a, b := orient([]rune(s), []rune(t))
	limit := m.threshold() * float64(len(b))

	v0 := make([]int, len(b)+1)
	v1 := make([]int, len(b)+1)
	for j := range v0 {
		v0[j] = j
	}
	for i := range a {
		if lowest := nextRow(a[i], b, i, v0, v1); float64(lowest) >= limit {
			return false
		}
		v0, v1 = v1, v0
	}
	return float64(v0[len(b)]) < limit
}

func (m Matcher) threshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}
