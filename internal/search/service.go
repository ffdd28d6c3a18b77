// Package search runs aggregator searches on behalf of the transports and
// records their outcome.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phrasehub/internal/aggregator"
	"phrasehub/internal/live"
	"phrasehub/internal/merge"
	"phrasehub/internal/scraper"
	"phrasehub/internal/textproc"
	"phrasehub/internal/wordcount"
	"phrasehub/pkg/models"
	"phrasehub/pkg/utils"
)

// ErrEmptyQuery is returned by Start for a blank phrase.
var ErrEmptyQuery = errors.New("search: empty query")

// saveTimeout bounds persisting a finished search.
const saveTimeout = 5 * time.Second

// Store persists finished searches.
type Store interface {
	Save(ctx context.Context, rec models.SearchRecord) error
}

// Publisher receives live-feed events.
type Publisher interface {
	Publish(ev live.Event)
}

// Service starts searches over the registered backends.
type Service struct {
	Registry  *scraper.Registry
	Store     Store
	Publisher Publisher
	Logger    *slog.Logger

	matcher                textproc.Matcher
	crossCheckLimit        int
	maxConsecutiveFailures int
	timeout                time.Duration
	// TopWords trims the word lists of live summary events.
	TopWords int
}

// NewService builds a Service from the search section of the config.
// store and pub may be nil.
func NewService(cfg utils.SearchConfig, reg *scraper.Registry, store Store, pub Publisher, logger *slog.Logger) (*Service, error) {
	m, err := textproc.NewMatcher(cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Registry:               reg,
		Store:                  store,
		Publisher:              pub,
		Logger:                 logger,
		matcher:                m,
		crossCheckLimit:        cfg.CrossCheckLimit,
		maxConsecutiveFailures: cfg.MaxConsecutiveFailures,
		timeout:                cfg.Timeout,
		TopWords:               20,
	}, nil
}

// Start launches a search for query. The caller must either drain
// Run.Batches or call Run.Wait; cancelling ctx stops the search early.
func (s *Service) Start(ctx context.Context, query string) (*Run, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	agg := aggregator.New(q, s.Registry.Backends(q),
		aggregator.WithMatcher(s.matcher),
		aggregator.WithLogger(s.Logger),
		aggregator.WithCrossCheckLimit(s.crossCheckLimit),
		aggregator.WithMergeOptions(merge.WithMaxConsecutiveFailures(s.maxConsecutiveFailures)),
	)

	r := &Run{
		ID:        uuid.NewString(),
		Query:     q,
		StartedAt: time.Now().UTC(),
		agg:       agg,
		batches:   make(chan aggregator.Batch),
		done:      make(chan struct{}),
	}
	s.Logger.Info("search started", "component", "search", "id", r.ID, "query", q,
		"backends", s.Registry.Names())

	go s.run(ctx, cancel, r)
	return r, nil
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, r *Run) {
	defer cancel()
	defer close(r.done)

	for b := range r.agg.Run(ctx) {
		if s.Publisher != nil {
			s.Publisher.Publish(live.BatchEvent(r.ID, r.Query, b.Record()))
		}
		select {
		case r.batches <- b:
		case <-ctx.Done():
		}
	}
	close(r.batches)

	rec := r.snapshot(time.Now().UTC())
	r.mu.Lock()
	r.record = rec
	r.mu.Unlock()

	if s.Store != nil {
		saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		if err := s.Store.Save(saveCtx, rec); err != nil {
			s.Logger.Error("saving search failed", "component", "search", "id", r.ID, "err", err)
			r.mu.Lock()
			r.saveErr = err
			r.mu.Unlock()
		}
		cancelSave()
	}
	if s.Publisher != nil {
		s.Publisher.Publish(live.SummaryEvent(rec, s.TopWords))
	}
	s.Logger.Info("search done", "component", "search", "id", r.ID,
		"sources", rec.Stats.Sources, "duration", rec.FinishedAt.Sub(rec.StartedAt))
}

// Run is one search in progress.
type Run struct {
	ID        string
	Query     string
	StartedAt time.Time

	agg     *aggregator.Aggregator
	batches chan aggregator.Batch
	done    chan struct{}

	mu      sync.Mutex
	record  models.SearchRecord
	saveErr error
}

// Batches yields cleaned batches as they arrive and is closed at the end.
func (r *Run) Batches() <-chan aggregator.Batch { return r.batches }

// Done is closed once the record is final and saved.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait discards any batches nobody consumed, blocks until the search is
// over and returns its record.
func (r *Run) Wait() models.SearchRecord {
	for range r.batches {
	}
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record
}

// SaveErr reports whether persisting the record failed.
func (r *Run) SaveErr() error {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveErr
}

// Snapshot returns the record as it stands now; FinishedAt is zero while
// the search is still running.
func (r *Run) Snapshot() models.SearchRecord {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.record
	default:
		return r.snapshot(time.Time{})
	}
}

func (r *Run) snapshot(finished time.Time) models.SearchRecord {
	sources := r.agg.Sources()
	rec := models.SearchRecord{
		ID:         r.ID,
		Query:      r.Query,
		StartedAt:  r.StartedAt,
		FinishedAt: finished,
		Sources:    make([]models.SourceRecord, 0, len(sources)),
		LeftWords:  wordCounts(r.agg.LeftWords()),
		RightWords: wordCounts(r.agg.RightWords()),
		Stats:      r.agg.Stats(),
	}
	for _, src := range sources {
		rec.Sources = append(rec.Sources, src.Record())
	}
	return rec
}

// wordCounts converts a tally to display order.
func wordCounts(entries []wordcount.Entry) []models.WordCount {
	entries = wordcount.SortEntries(entries)
	out := make([]models.WordCount, len(entries))
	for i, e := range entries {
		out[i] = models.WordCount{Word: e.Word, Count: e.Count}
	}
	return out
}

// TrimWords cuts a sorted tally to at most n entries; n <= 0 keeps all.
func TrimWords(words []models.WordCount, n int) []models.WordCount {
	if n > 0 && len(words) > n {
		return words[:n]
	}
	return words
}
