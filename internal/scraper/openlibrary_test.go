package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func olHitJSON(title string, texts ...string) map[string]any {
	hit := map[string]any{
		"fields": map[string]any{
			"meta_title":   []string{"Meta " + title},
			"meta_creator": []string{"Meta Creator"},
			"meta_year":    []any{1987},
		},
		"highlight": map[string]any{"text": texts},
	}
	if title != "" {
		hit["edition"] = map[string]any{
			"title":        title,
			"authors":      []any{map[string]any{"name": "Stephen King"}},
			"publish_date": "October 3, 2000",
		}
	}
	return hit
}

func TestOpenLibrary_PagesUntilEmpty(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/search/inside.json", r.URL.Path)
		assert.Equal(t, `"on writing"`, r.URL.Query().Get("q"))
		switch r.URL.Query().Get("page") {
		case "":
			writeJSON(w, map[string]any{"hits": map[string]any{"total": 1000, "hits": []any{
				olHitJSON("On Writing", "I was {{{on writing}}} again", "no marker here"),
				olHitJSON("Nothing", "no marker at all"),
			}}})
		case "2":
			writeJSON(w, map[string]any{"hits": map[string]any{"total": 1000, "hits": []any{
				olHitJSON("", "a {{{on writing}}} b"),
			}}})
		default:
			writeJSON(w, map[string]any{"hits": map[string]any{"total": 1000, "hits": []any{}}})
		}
	}))
	defer srv.Close()

	ol := NewOpenLibrary("on writing", OpenLibraryConfig{BaseURL: srv.URL}, testClient())
	ctx := context.Background()

	items, done, err := ol.Next(ctx)
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, items, 1)
	assert.Equal(t, "On Writing", items[0].Title)
	assert.Equal(t, []string{"Stephen King"}, items[0].Authors)
	assert.Equal(t, []string{"I was {{{on writing}}} again"}, items[0].Excerpts)
	require.NotNil(t, items[0].PublishedYear)
	assert.Equal(t, 2000, *items[0].PublishedYear)
	assert.Equal(t, OpenLibraryName, items[0].Backend)

	items, done, err = ol.Next(ctx)
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, items, 1)
	assert.Equal(t, "Meta ", items[0].Title)
	assert.Equal(t, []string{"Meta Creator"}, items[0].Authors)
	require.NotNil(t, items[0].PublishedYear)
	assert.Equal(t, 1987, *items[0].PublishedYear)

	_, done, err = ol.Next(ctx)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, int32(3), requests.Load())
}

func TestOpenLibrary_StopsAtTotalAndMaxPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		maxPages int
		want     int32
	}{
		{"total reached", 30, 10, 2},
		{"max pages", 1000, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				writeJSON(w, map[string]any{"hits": map[string]any{"total": tt.total, "hits": []any{
					olHitJSON("Book", "{{{x}}}"),
				}}})
			}))
			defer srv.Close()

			ol := NewOpenLibrary("x", OpenLibraryConfig{BaseURL: srv.URL, MaxPages: tt.maxPages, PageSize: 20}, testClient())
			for i := 0; i < 20; i++ {
				_, done, err := ol.Next(context.Background())
				require.NoError(t, err)
				if done {
					break
				}
			}
			assert.Equal(t, tt.want, requests.Load())
		})
	}
}

func TestOpenLibrary_FailedPageAdvances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"hits": map[string]any{"total": 100, "hits": []any{
			olHitJSON("Page "+r.URL.Query().Get("page"), "{{{x}}}"),
		}}})
	}))
	defer srv.Close()

	ol := NewOpenLibrary("x", OpenLibraryConfig{BaseURL: srv.URL}, testClient())
	_, _, err := ol.Next(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	items, _, err := ol.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Page 2", items[0].Title)
}

func TestParseMetaYear(t *testing.T) {
	y := parseMetaYear([]byte(`"1999"`))
	require.NotNil(t, y)
	assert.Equal(t, 1999, *y)

	y = parseMetaYear([]byte(`2001`))
	require.NotNil(t, y)
	assert.Equal(t, 2001, *y)

	assert.Nil(t, parseMetaYear([]byte(`{}`)))
}
