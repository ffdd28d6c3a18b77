// Package merge fans several batch producers into one stream ordered by
// completion time.
//
// Each producer has at most one request in flight. When a request
// completes, the producer is asked for its next batch straight away and the
// finished batch goes to the output, so a fast producer is never held back
// by a slow one. Batches of a single producer keep their relative order.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
)

// ErrExhausted may be returned (or wrapped) by a producer to signal that a
// failure is final and the producer must not be asked again.
var ErrExhausted = errors.New("producer exhausted")

// Producer yields successive batches. done reports that the producer has
// nothing more to give; Next is never called again after that.
type Producer[T any] interface {
	Next(ctx context.Context) (items []T, done bool, err error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc[T any] func(ctx context.Context) ([]T, bool, error)

func (f ProducerFunc[T]) Next(ctx context.Context) ([]T, bool, error) { return f(ctx) }

// Batch is one completed request: the index of the producer in the slice
// given to New and the items it returned.
type Batch[T any] struct {
	Producer int
	Items    []T
}

// FailureHook observes requests whose errors were swallowed.
type FailureHook func(producer int, err error)

type options struct {
	logger         *slog.Logger
	onFailure      FailureHook
	maxConsecutive int
}

// Option configures a Merger.
type Option func(*options)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFailureHook registers a callback for every discarded failed request.
// It is called from the merge loop and must not block.
func WithFailureHook(h FailureHook) Option {
	return func(o *options) { o.onFailure = h }
}

// WithMaxConsecutiveFailures exhausts a producer after n failed requests in
// a row. Zero means no limit.
func WithMaxConsecutiveFailures(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxConsecutive = n
		}
	}
}

// Merger merges a fixed set of producers.
type Merger[T any] struct {
	producers []Producer[T]
	opts      options
	failures  atomic.Int64
}

// New returns a Merger over producers. The slice order defines producer
// indexes and breaks ties between requests that complete together.
func New[T any](producers []Producer[T], opts ...Option) *Merger[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Merger[T]{
		producers: append([]Producer[T](nil), producers...),
		opts:      o,
	}
}

// Failures returns how many failed requests have been discarded so far.
func (m *Merger[T]) Failures() int64 {
	return m.failures.Load()
}

type completion[T any] struct {
	index int
	items []T
	done  bool
	err   error
}

// Stream starts the merge and returns its output. The channel is closed
// once every producer is exhausted or ctx is done. Stream must be called
// at most once.
func (m *Merger[T]) Stream(ctx context.Context) <-chan Batch[T] {
	out := make(chan Batch[T])
	go m.run(ctx, out)
	return out
}

func (m *Merger[T]) run(ctx context.Context, out chan<- Batch[T]) {
	defer close(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// one slot per producer: a finishing request never blocks, even after
	// the loop has returned
	completions := make(chan completion[T], len(m.producers))
	streak := make([]int, len(m.producers))
	active := len(m.producers)

	for i := range m.producers {
		m.request(ctx, i, completions)
	}

	for active > 0 {
		var tick []completion[T]
		select {
		case <-ctx.Done():
			return
		case c := <-completions:
			tick = append(tick, c)
		}
		tick = drainReady(completions, tick)

		for _, c := range tick {
			if ctx.Err() != nil {
				return
			}

			if c.err != nil && !errors.Is(c.err, ErrExhausted) {
				m.discard(c)
				if c.done {
					active--
					continue
				}
				streak[c.index]++
				if m.opts.maxConsecutive > 0 && streak[c.index] >= m.opts.maxConsecutive {
					m.opts.logger.Warn("producer failed too often, giving up",
						"component", "merge", "producer", c.index, "failures", streak[c.index])
					active--
					continue
				}
				m.request(ctx, c.index, completions)
				continue
			}
			streak[c.index] = 0
			if c.err != nil {
				m.opts.logger.Warn("producer exhausted",
					"component", "merge", "producer", c.index, "err", c.err)
			}

			finished := c.done || c.err != nil
			if finished {
				active--
			} else {
				m.request(ctx, c.index, completions)
			}

			// a terminal response may still carry a last page
			if finished && len(c.items) == 0 {
				continue
			}
			select {
			case out <- Batch[T]{Producer: c.index, Items: c.items}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Merger[T]) request(ctx context.Context, i int, completions chan<- completion[T]) {
	p := m.producers[i]
	go func() {
		c := completion[T]{index: i}
		defer func() {
			if r := recover(); r != nil {
				c = completion[T]{index: i, err: fmt.Errorf("merge: producer %d panicked: %v", i, r)}
			}
			completions <- c
		}()
		c.items, c.done, c.err = p.Next(ctx)
	}()
}

func (m *Merger[T]) discard(c completion[T]) {
	m.failures.Add(1)
	m.opts.logger.Debug("discarding failed request",
		"component", "merge", "producer", c.index, "err", c.err)
	if m.opts.onFailure != nil {
		m.opts.onFailure(c.index, c.err)
	}
}

// drainReady appends every completion that is already waiting and orders
// the tick by producer index.
func drainReady[T any](ch <-chan completion[T], tick []completion[T]) []completion[T] {
	for {
		select {
		case c := <-ch:
			tick = append(tick, c)
		default:
			sort.Slice(tick, func(i, j int) bool { return tick[i].index < tick[j].index })
			return tick
		}
	}
}
