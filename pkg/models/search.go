package models

import "time"

// WordCount is one entry of a context-word tally.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SearchStats summarises what happened while a search ran.
type SearchStats struct {
	Batches         int   `json:"batches"`
	Sources         int   `json:"sources"`
	Snippets        int   `json:"snippets"`
	DroppedSources  int   `json:"dropped_sources"`
	ParseErrors     int   `json:"parse_errors"`
	BackendFailures int64 `json:"backend_failures"`
}

// SearchRecord is a finished search: what was asked, what came back and
// the word tallies around the phrase.
type SearchRecord struct {
	ID         string         `json:"id"`
	Query      string         `json:"query"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceRecord `json:"sources"`
	LeftWords  []WordCount    `json:"left_words"`
	RightWords []WordCount    `json:"right_words"`
	Stats      SearchStats    `json:"stats"`
}

// SearchSummary is the list view of a stored search.
type SearchSummary struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SourceCount int       `json:"source_count"`
}
