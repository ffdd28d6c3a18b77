// Package mirror serves canned backend responses shaped like the Google
// Books and Open Library search APIs, for offline runs.
package mirror

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	GoogleBooksFile = "google_books.json"
	OpenLibraryFile = "open_library.json"

	defaultGooglePageSize = 40
	openLibraryPageSize   = 20
)

// Fixtures holds the raw items each fake API pages through.
type Fixtures struct {
	GoogleBooks []json.RawMessage
	OpenLibrary []json.RawMessage
}

// Load reads the fixture files from dir. A missing file means no items
// for that API.
func Load(dir string) (*Fixtures, error) {
	var gb struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := readJSON(filepath.Join(dir, GoogleBooksFile), &gb); err != nil {
		return nil, err
	}
	var ol struct {
		Hits struct {
			Hits []json.RawMessage `json:"hits"`
		} `json:"hits"`
	}
	if err := readJSON(filepath.Join(dir, OpenLibraryFile), &ol); err != nil {
		return nil, err
	}
	return &Fixtures{GoogleBooks: gb.Items, OpenLibrary: ol.Hits.Hits}, nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("mirror: %s invalid JSON: %w", path, err)
	}
	return nil
}

func (f *Fixtures) RegisterRoutes(r gin.IRouter) {
	r.GET("/books/v1/volumes", f.volumes)  // Google Books
	r.GET("/search/inside.json", f.inside) // Open Library
}

func (f *Fixtures) volumes(c *gin.Context) {
	start := queryInt(c, "startIndex", 0)
	size := queryInt(c, "maxResults", defaultGooglePageSize)
	c.JSON(http.StatusOK, gin.H{
		"totalItems": len(f.GoogleBooks),
		"items":      window(f.GoogleBooks, start, size),
	})
}

func (f *Fixtures) inside(c *gin.Context) {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"hits": gin.H{
			"total": len(f.OpenLibrary),
			"hits":  window(f.OpenLibrary, (page-1)*openLibraryPageSize, openLibraryPageSize),
		},
	})
}

func window(items []json.RawMessage, start, size int) []json.RawMessage {
	if start < 0 || start >= len(items) || size <= 0 {
		return []json.RawMessage{}
	}
	return items[start:min(start+size, len(items))]
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
