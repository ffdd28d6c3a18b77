package models

// SnippetRecord is the wire / storage form of one parsed excerpt.
//
// Text is the excerpt with the marker removed; Left + Matched + Right == Text.
type SnippetRecord struct {
	Text          string `json:"text"`
	Left          string `json:"left"`
	Matched       string `json:"matched"`
	Right         string `json:"right"`
	WordFromLeft  string `json:"word_from_left"`
	WordFromRight string `json:"word_from_right"`
}

// SourceRecord is the wire / storage form of one retrieved book.
type SourceRecord struct {
	Backend       string          `json:"backend"`                  // adapter that produced it
	Title         string          `json:"title"`                    // book title as reported by the backend
	Authors       []string        `json:"authors,omitempty"`        // may be empty
	PublishedYear *int            `json:"published_year,omitempty"` // nil when unknown
	Snippets      []SnippetRecord `json:"snippets"`                 // never empty for an emitted source
}

// BatchRecord is one cleaned batch as sent to streaming clients.
type BatchRecord struct {
	Backend string         `json:"backend"`
	Sources []SourceRecord `json:"sources"`
}
