package live

import (
	"time"

	"phrasehub/pkg/models"
)

const (
	EventBatch   = "search.batch"
	EventSummary = "search.summary"
	EventWelcome = "welcome"
)

// Event is one line of the live feed.
type Event struct {
	Type     string              `json:"type"`
	SearchID string              `json:"search_id,omitempty"`
	Query    string              `json:"query,omitempty"`
	Batch    *models.BatchRecord `json:"batch,omitempty"`
	Summary  *Summary            `json:"summary,omitempty"`
	At       time.Time           `json:"at"`
}

// Summary is the tail of a finished search, without the sources.
type Summary struct {
	Stats      models.SearchStats `json:"stats"`
	LeftWords  []models.WordCount `json:"left_words"`
	RightWords []models.WordCount `json:"right_words"`
}

// BatchEvent wraps one cleaned batch of a running search.
func BatchEvent(searchID, query string, b models.BatchRecord) Event {
	return Event{Type: EventBatch, SearchID: searchID, Query: query, Batch: &b, At: time.Now().UTC()}
}

// SummaryEvent announces a finished search. Word lists are cut to top.
func SummaryEvent(rec models.SearchRecord, top int) Event {
	return Event{
		Type:     EventSummary,
		SearchID: rec.ID,
		Query:    rec.Query,
		Summary: &Summary{
			Stats:      rec.Stats,
			LeftWords:  head(rec.LeftWords, top),
			RightWords: head(rec.RightWords, top),
		},
		At: time.Now().UTC(),
	}
}

func head(words []models.WordCount, n int) []models.WordCount {
	if n > 0 && len(words) > n {
		return words[:n]
	}
	return words
}
