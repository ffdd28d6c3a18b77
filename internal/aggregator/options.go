package aggregator

import (
	"log/slog"

	"phrasehub/internal/merge"
	"phrasehub/internal/textproc"
)

type options struct {
	matcher         textproc.Matcher
	logger          *slog.Logger
	crossCheckLimit int
	mergeOpts       []merge.Option
}

// Option configures an Aggregator.
type Option func(*options)

// WithMatcher sets the similarity matcher used for snippets and titles.
func WithMatcher(m textproc.Matcher) Option {
	return func(o *options) { o.matcher = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCrossCheckLimit compares a new source only with the n most recently
// emitted ones. Zero compares with all of them.
func WithCrossCheckLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.crossCheckLimit = n
		}
	}
}

// WithMergeOptions passes options through to the underlying merger.
func WithMergeOptions(opts ...merge.Option) Option {
	return func(o *options) { o.mergeOpts = append(o.mergeOpts, opts...) }
}
