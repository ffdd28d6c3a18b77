package snippet

import (
	"fmt"
	"regexp"
)

// Marker describes how a backend highlights the searched phrase inside an
// excerpt. The wrapped expression must capture exactly the highlighted
// text as its only group.
type Marker struct {
	re *regexp.Regexp
}

var (
	// BoldTags is the Google Books convention: <b>phrase</b>.
	BoldTags = MustMarker(`<b>(.+?)</b>`)
	// TripleBraces is the Open Library convention: {{{phrase}}}.
	TripleBraces = MustMarker(`\{\{\{(.+?)\}\}\}`)
	// Braces marks the phrase with single braces: {phrase}.
	Braces = MustMarker(`\{(.+?)\}`)
)

// NewMarker compiles expr and checks that it has a single capture group.
func NewMarker(expr string) (Marker, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Marker{}, fmt.Errorf("snippet: compile marker %q: %w", expr, err)
	}
	if n := re.NumSubexp(); n != 1 {
		return Marker{}, fmt.Errorf("snippet: marker %q must have exactly one capture group, has %d", expr, n)
	}
	return Marker{re: re}, nil
}

// MustMarker is like NewMarker but panics on error.
func MustMarker(expr string) Marker {
	m, err := NewMarker(expr)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the marker's expression.
func (m Marker) String() string {
	if m.re == nil {
		return ""
	}
	return m.re.String()
}

// IsZero reports whether the marker was never initialised.
func (m Marker) IsZero() bool { return m.re == nil }

// Matches reports whether text contains a marked phrase.
func (m Marker) Matches(text string) bool {
	return m.re != nil && m.re.MatchString(text)
}
