package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrasehub/internal/logging"
	"phrasehub/pkg/utils"
)

func TestClient_RateLimitedBacksOff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	limiter := NewRateLimiter(0, 1)
	c := NewClient(time.Second, limiter, nil, logging.Discard())

	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.WithinDuration(t, time.Now().Add(7*time.Second), limiter.RetryAt(), time.Second)
}

func TestClient_CachesSuccessfulPages(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, map[string]any{"n": 1})
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil, NewPageCache(4), logging.Discard())
	for i := 0; i < 3; i++ {
		var out struct{ N int }
		require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/page", &out))
		assert.Equal(t, 1, out.N)
	}
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 1, c.Cache.Len())
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient().GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorContains(t, err, "decode")
}

func TestPageCache_CollapsesConcurrentFetches(t *testing.T) {
	cache := NewPageCache(0)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([][]byte, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = cache.Get(context.Background(), "k", func(context.Context) ([]byte, error) {
				calls.Add(1)
				<-release
				return []byte("body"), nil
			})
		}()
	}
	// let the goroutines pile up behind the first fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []byte("body"), r)
	}
}

func TestPageCache_DoesNotCacheFailures(t *testing.T) {
	cache := NewPageCache(2)
	boom := errors.New("boom")

	_, err := cache.Get(context.Background(), "k", func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())

	body, err := cache.Get(context.Background(), "k", func(context.Context) ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestPageCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	cache := NewPageCache(2)
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		close(started)
		select {
		case <-release:
			return []byte("body"), ctx.Err()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(firstCtx, "k", fetch)
		firstErr <- err
	}()
	<-started

	second := make(chan []byte, 1)
	go func() {
		body, _ := cache.Get(context.Background(), "k", fetch)
		second <- body
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	select {
	case body := <-second:
		assert.Equal(t, []byte("body"), body)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got the shared page")
	}
	assert.Equal(t, 1, cache.Len())
}

func TestRateLimiter_WaitHonoursBackoffAndContext(t *testing.T) {
	r := NewRateLimiter(1000, 1)
	require.NoError(t, r.Wait(context.Background()))

	r.Backoff(time.Hour)
	before := r.RetryAt()
	r.Backoff(time.Millisecond)
	assert.Equal(t, before, r.RetryAt(), "shorter backoff must not shorten the wait")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)

	var nilLimiter *RateLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background()))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func(q string) Backend { return NewOpenLibrary(q, OpenLibraryConfig{}, testClient()) })
	r.Register("a", func(q string) Backend { return NewGoogleBooks(q, GoogleBooksConfig{}, testClient()) })

	assert.Equal(t, []string{"a", "b"}, r.Names())
	backends := r.Backends("q")
	require.Len(t, backends, 2)
	assert.Equal(t, GoogleBooksName, backends[0].Name())
	assert.Equal(t, OpenLibraryName, backends[1].Name())
}

func TestFromConfig(t *testing.T) {
	cfg := utils.DefaultConfig()
	assert.Equal(t, []string{GoogleBooksName, OpenLibraryName}, FromConfig(cfg, logging.Discard()).Names())

	cfg.Backends.GoogleBooks.Enabled = false
	assert.Equal(t, []string{OpenLibraryName}, FromConfig(cfg, nil).Names())
}
