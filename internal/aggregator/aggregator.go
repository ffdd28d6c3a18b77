// Package aggregator runs a phrase search across several backends and turns
// their raw pages into deduplicated sources plus context-word tallies.
package aggregator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"phrasehub/internal/merge"
	"phrasehub/internal/scraper"
	"phrasehub/internal/snippet"
	"phrasehub/internal/textproc"
	"phrasehub/internal/wordcount"
	"phrasehub/pkg/models"
)

// Aggregator serves one query. Run may be called once; the accessors are
// safe to call from other goroutines while it runs.
type Aggregator struct {
	query    string
	backends []scraper.Backend
	opts     options
	merger   *merge.Merger[scraper.RawSource]

	mu      sync.Mutex
	emitted []*Source
	left    *wordcount.Counter
	right   *wordcount.Counter
	stats   models.SearchStats
}

// New returns an Aggregator for query over backends.
func New(query string, backends []scraper.Backend, opts ...Option) *Aggregator {
	o := options{matcher: textproc.DefaultMatcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Aggregator{
		query:    query,
		backends: append([]scraper.Backend(nil), backends...),
		opts:     o,
		left:     wordcount.New(),
		right:    wordcount.New(),
	}

	producers := make([]merge.Producer[scraper.RawSource], len(a.backends))
	for i, b := range a.backends {
		producers[i] = b
	}
	mergeOpts := append([]merge.Option{
		merge.WithLogger(o.logger),
		merge.WithFailureHook(a.onFailure),
	}, o.mergeOpts...)
	a.merger = merge.New(producers, mergeOpts...)
	return a
}

// Query returns the phrase being searched.
func (a *Aggregator) Query() string { return a.query }

// Run starts the search. The returned channel yields cleaned, non-empty
// batches and is closed when every backend is exhausted or ctx is done.
func (a *Aggregator) Run(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		for raw := range a.merger.Stream(ctx) {
			batch := a.process(raw)
			if len(batch.Sources) == 0 {
				continue
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
		a.opts.logger.Info("search finished", "component", "aggregator",
			"query", a.query, "sources", a.Stats().Sources, "failures", a.merger.Failures())
	}()
	return out
}

func (a *Aggregator) onFailure(producer int, err error) {
	a.opts.logger.Warn("backend page failed", "component", "aggregator",
		"backend", a.backends[producer].Name(), "err", err)
}

func (a *Aggregator) process(raw merge.Batch[scraper.RawSource]) Batch {
	batch := Batch{Backend: a.backends[raw.Producer].Name()}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, rs := range raw.Items {
		src := a.clean(rs)
		if src == nil {
			a.stats.DroppedSources++
			continue
		}
		a.emitted = append(a.emitted, src)
		batch.Sources = append(batch.Sources, src)

		a.stats.Sources++
		a.stats.Snippets += len(src.Snippets)
		for _, sn := range src.Snippets {
			a.left.Add(sn.WordFromLeft())
			a.right.Add(sn.WordFromRight())
		}
	}
	if len(batch.Sources) > 0 {
		a.stats.Batches++
	}
	return batch
}

// clean turns a raw source into an emitted one, or nil when nothing of it
// survives. Callers hold a.mu.
func (a *Aggregator) clean(rs scraper.RawSource) *Source {
	snippets := make([]*snippet.Snippet, 0, len(rs.Excerpts))
	for _, text := range rs.Excerpts {
		sn, err := snippet.Parse(text, rs.Marker)
		if err != nil {
			a.stats.ParseErrors++
			a.opts.logger.Debug("skipping excerpt", "component", "aggregator",
				"backend", rs.Backend, "title", rs.Title, "err", err)
			continue
		}
		snippets = append(snippets, sn)
	}

	snippets = textproc.RemoveDuplicatesFunc(a.opts.matcher, snippets, snippetText)

	for _, prev := range a.crossCheckPool() {
		if len(snippets) == 0 {
			break
		}
		if a.opts.matcher.IsSimilar(prev.Title, rs.Title) {
			textproc.RemoveCrossDuplicatesFunc(a.opts.matcher, &snippets, prev.Snippets, snippetText)
		}
	}

	kept := snippets[:0]
	for _, sn := range snippets {
		if matchesQuery(sn.Matched(), a.query) {
			kept = append(kept, sn)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	return &Source{
		Backend:       rs.Backend,
		Title:         rs.Title,
		Authors:       rs.Authors,
		PublishedYear: rs.PublishedYear,
		Snippets:      kept,
	}
}

func (a *Aggregator) crossCheckPool() []*Source {
	if n := a.opts.crossCheckLimit; n > 0 && len(a.emitted) > n {
		return a.emitted[len(a.emitted)-n:]
	}
	return a.emitted
}

// matchesQuery compares the highlighted text with the query ignoring case
// and runs of whitespace.
func matchesQuery(matched, query string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(matched), " "), strings.Join(strings.Fields(query), " "))
}

// Sources returns the emitted sources so far, in emission order.
func (a *Aggregator) Sources() []*Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Source(nil), a.emitted...)
}

// LeftWords returns the tally of words right before the phrase, in
// first-seen order.
func (a *Aggregator) LeftWords() []wordcount.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.left.Entries()
}

// RightWords returns the tally of words right after the phrase, in
// first-seen order.
func (a *Aggregator) RightWords() []wordcount.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.right.Entries()
}

func (a *Aggregator) Stats() models.SearchStats {
	a.mu.Lock()
	s := a.stats
	a.mu.Unlock()
	s.BackendFailures = a.merger.Failures()
	return s
}
