// Package snippet parses backend excerpts that carry a highlighted phrase
// into the phrase itself and the text around it.
package snippet

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"phrasehub/pkg/models"
)

// ErrNoMatch is wrapped by every ParseError.
var ErrNoMatch = errors.New("marker not found")

// ParseError is returned by Parse when the marker does not occur in the text.
type ParseError struct {
	Text    string
	Pattern string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("snippet: could not find /%s/ in %q", e.Pattern, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrNoMatch }

var wordCore = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Snippet is an immutable excerpt split around its highlighted phrase.
type Snippet struct {
	source     string
	left       string
	matched    string
	right      string
	leftWords  []string
	rightWords []string
}

// Parse splits text on the first occurrence of the marker. Left is what
// precedes the whole marked region, Right what follows it; neither is
// trimmed.
func Parse(text string, m Marker) (*Snippet, error) {
	if m.re == nil {
		return nil, &ParseError{Text: text}
	}
	loc := m.re.FindStringSubmatchIndex(text)
	if loc == nil || loc[2] < 0 {
		return nil, &ParseError{Text: text, Pattern: m.re.String()}
	}

	s := &Snippet{
		source:  text,
		left:    text[:loc[0]],
		matched: text[loc[2]:loc[3]],
		right:   text[loc[1]:],
	}
	s.leftWords = strings.Fields(s.left)
	s.rightWords = strings.Fields(s.right)
	return s, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// fixed fixtures.
func MustParse(text string, m Marker) *Snippet {
	s, err := Parse(text, m)
	if err != nil {
		panic(err)
	}
	return s
}

// Source returns the raw text the snippet was parsed from, markers included.
func (s *Snippet) Source() string { return s.source }

func (s *Snippet) Left() string    { return s.left }
func (s *Snippet) Matched() string { return s.matched }
func (s *Snippet) Right() string   { return s.right }

// LeftWords returns the whitespace-separated tokens left of the phrase.
func (s *Snippet) LeftWords() []string { return append([]string(nil), s.leftWords...) }

// RightWords returns the whitespace-separated tokens right of the phrase.
func (s *Snippet) RightWords() []string { return append([]string(nil), s.rightWords...) }

// WordFromLeft is the word immediately before the phrase, lowercased and
// stripped of punctuation. Empty when there is none.
func (s *Snippet) WordFromLeft() string {
	if len(s.leftWords) == 0 {
		return ""
	}
	return normalizeWord(s.leftWords[len(s.leftWords)-1])
}

// WordFromRight is the word immediately after the phrase, lowercased and
// stripped of punctuation. Empty when there is none.
func (s *Snippet) WordFromRight() string {
	if len(s.rightWords) == 0 {
		return ""
	}
	return normalizeWord(s.rightWords[0])
}

// String returns the excerpt without the marker.
func (s *Snippet) String() string {
	return s.left + s.matched + s.right
}

// Record converts the snippet to its wire form.
func (s *Snippet) Record() models.SnippetRecord {
	return models.SnippetRecord{
		Text:          s.String(),
		Left:          s.left,
		Matched:       s.matched,
		Right:         s.right,
		WordFromLeft:  s.WordFromLeft(),
		WordFromRight: s.WordFromRight(),
	}
}

func (s *Snippet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}

func normalizeWord(token string) string {
	return strings.ToLower(wordCore.FindString(token))
}
