package aggregator

import (
	"phrasehub/internal/snippet"
	"phrasehub/pkg/models"
)

// Source is one book after parsing and deduplication. Its snippets are
// never empty once emitted.
type Source struct {
	Backend       string
	Title         string
	Authors       []string
	PublishedYear *int
	Snippets      []*snippet.Snippet
}

func (s *Source) Record() models.SourceRecord {
	rec := models.SourceRecord{
		Backend:       s.Backend,
		Title:         s.Title,
		Authors:       append([]string(nil), s.Authors...),
		PublishedYear: s.PublishedYear,
		Snippets:      make([]models.SnippetRecord, 0, len(s.Snippets)),
	}
	for _, sn := range s.Snippets {
		rec.Snippets = append(rec.Snippets, sn.Record())
	}
	return rec
}

// Batch is one cleaned backend page.
type Batch struct {
	Backend string
	Sources []*Source
}

func (b Batch) Record() models.BatchRecord {
	rec := models.BatchRecord{Backend: b.Backend, Sources: make([]models.SourceRecord, 0, len(b.Sources))}
	for _, s := range b.Sources {
		rec.Sources = append(rec.Sources, s.Record())
	}
	return rec
}

// snippetText is the dedup key of a snippet: its text without the marker.
func snippetText(s *snippet.Snippet) string { return s.String() }
