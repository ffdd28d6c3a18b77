package scraper

import (
	"log/slog"

	"phrasehub/pkg/utils"
)

// FromConfig registers every enabled backend. Each backend gets its own
// rate limiter; the page cache is shared.
func FromConfig(cfg utils.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	cache := NewPageCache(cfg.Search.CacheSize)
	r := NewRegistry()

	if b := cfg.Backends.GoogleBooks; b.Enabled {
		client := NewClient(b.Timeout, NewRateLimiter(b.RequestsPerSecond, b.Burst), cache,
			logger.With("backend", GoogleBooksName))
		r.Register(GoogleBooksName, GoogleBooksFactory(GoogleBooksConfig{
			BaseURL:  b.BaseURL,
			APIKey:   b.APIKey,
			PageSize: b.PageSize,
			MaxPages: b.MaxPages,
		}, client))
	}
	if b := cfg.Backends.OpenLibrary; b.Enabled {
		client := NewClient(b.Timeout, NewRateLimiter(b.RequestsPerSecond, b.Burst), cache,
			logger.With("backend", OpenLibraryName))
		r.Register(OpenLibraryName, OpenLibraryFactory(OpenLibraryConfig{
			BaseURL:  b.BaseURL,
			MaxPages: b.MaxPages,
			PageSize: b.PageSize,
		}, client))
	}
	return r
}
