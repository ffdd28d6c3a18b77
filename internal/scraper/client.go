package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client performs rate-limited, cached GET requests for JSON pages.
type Client struct {
	HTTP    *http.Client
	Limiter *RateLimiter
	Cache   *PageCache
	Logger  *slog.Logger
}

// NewClient returns a Client with the given timeout. limiter and cache may
// be nil.
func NewClient(timeout time.Duration, limiter *RateLimiter, cache *PageCache, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: limiter,
		Cache:   cache,
		Logger:  logger,
	}
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	var (
		body []byte
		err  error
	)
	if c.Cache != nil {
		body, err = c.Cache.Get(ctx, url, func(ctx context.Context) ([]byte, error) { return c.fetch(ctx, url) })
	} else {
		body, err = c.fetch(ctx, url)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	c.Logger.Debug("fetched page", "component", "scraper", "url", url,
		"status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.Limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(string(body), 200))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("%w %q", ErrUnexpectedContentType, ct)
	}
	return body, nil
}

// retryAfter parses the seconds form of a Retry-After header.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
