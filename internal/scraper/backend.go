package scraper

import (
	"context"
	"errors"
	"sort"

	"phrasehub/internal/snippet"
)

var (
	// ErrUnexpectedStatus is wrapped when a backend answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrUnexpectedContentType is wrapped when a backend does not answer with JSON.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrRateLimited is wrapped when a backend answers 429.
	ErrRateLimited = errors.New("rate limited")
)

// RawSource is one backend hit mapped into a common shape. Excerpts are
// still marked the backend's way; Marker tells how to find the phrase.
type RawSource struct {
	Backend       string
	Title         string
	Authors       []string
	PublishedYear *int
	Excerpts      []string
	Marker        snippet.Marker
}

// Backend is implemented by each full-text search API. A Backend serves a
// single query and pages through its results one Next call at a time; it
// reports done when there is nothing left and must not be called again
// afterwards.
type Backend interface {
	Name() string
	Next(ctx context.Context) (items []RawSource, done bool, err error)
}

// Factory builds a Backend for one query.
type Factory func(query string) Backend

// Registry holds the enabled backend factories by name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds (or replaces) a named factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names lists registered backends in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backends instantiates every registered backend for query, in Names order.
func (r *Registry) Backends(query string) []Backend {
	names := r.Names()
	out := make([]Backend, 0, len(names))
	for _, name := range names {
		out = append(out, r.factories[name](query))
	}
	return out
}

func intPtr(v int) *int { return &v }
