package mirror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func router(t *testing.T, f *Fixtures) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	f.RegisterRoutes(r)
	return r
}

func items(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(`{"n":` + string(rune('0'+i%10)) + `}`)
	}
	return out
}

func TestVolumes_Paginates(t *testing.T) {
	r := router(t, &Fixtures{GoogleBooks: items(5)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/v1/volumes?startIndex=3&maxResults=4", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		TotalItems int               `json:"totalItems"`
		Items      []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 5, page.TotalItems)
	assert.Len(t, page.Items, 2)
}

func TestInside_Paginates(t *testing.T) {
	r := router(t, &Fixtures{OpenLibrary: items(25)})

	var page struct {
		Hits struct {
			Total int               `json:"total"`
			Hits  []json.RawMessage `json:"hits"`
		} `json:"hits"`
	}
	for _, tt := range []struct {
		query string
		want  int
	}{
		{"", 20},
		{"?page=2", 5},
		{"?page=3", 0},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/inside.json"+tt.query, nil))
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 25, page.Hits.Total)
		assert.Len(t, page.Hits.Hits, tt.want, tt.query)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GoogleBooksFile), []byte(`{"items":[{},{}]}`), 0o644))

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, f.GoogleBooks, 2)
	assert.Empty(t, f.OpenLibrary)

	require.NoError(t, os.WriteFile(filepath.Join(dir, OpenLibraryFile), []byte(`{nope`), 0o644))
	_, err = Load(dir)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestLoad_BundledFixtures(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "data", "mirror"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.GoogleBooks)
	assert.NotEmpty(t, f.OpenLibrary)
}
