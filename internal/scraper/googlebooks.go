package scraper

import (
	"context"
	"fmt"
	"html"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"phrasehub/internal/merge"
	"phrasehub/internal/snippet"
)

const (
	GoogleBooksName    = "google_books"
	GoogleBooksBaseURL = "https://www.googleapis.com"

	googleBooksPageSize   = 40
	googleBooksTotalRatio = 0.85
	googleBooksFields     = "totalItems,items(volumeInfo(title,authors,publishedDate),searchInfo(textSnippet))"
)

// GoogleBooksConfig configures the Google Books backend.
type GoogleBooksConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
	// TotalRatio scales the reported totalItems, which the API overstates.
	TotalRatio float64
	// MaxPages caps the number of pages per query. Zero means no cap.
	MaxPages int
}

func (c GoogleBooksConfig) withDefaults() GoogleBooksConfig {
	if c.BaseURL == "" {
		c.BaseURL = GoogleBooksBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.PageSize <= 0 || c.PageSize > googleBooksPageSize {
		c.PageSize = googleBooksPageSize
	}
	if c.TotalRatio <= 0 || c.TotalRatio > 1 {
		c.TotalRatio = googleBooksTotalRatio
	}
	return c
}

// GoogleBooks pages through the volumes endpoint of the Google Books API.
type GoogleBooks struct {
	cfg    GoogleBooksConfig
	client *Client
	query  string

	page  int // pages requested so far
	pages int // pages to request in total, -1 until the first page is seen
}

// NewGoogleBooks returns a backend serving query.
func NewGoogleBooks(query string, cfg GoogleBooksConfig, client *Client) *GoogleBooks {
	return &GoogleBooks{cfg: cfg.withDefaults(), client: client, query: query, pages: -1}
}

// GoogleBooksFactory binds cfg and client into a Factory.
func GoogleBooksFactory(cfg GoogleBooksConfig, client *Client) Factory {
	return func(query string) Backend { return NewGoogleBooks(query, cfg, client) }
}

func (g *GoogleBooks) Name() string { return GoogleBooksName }

type gbPage struct {
	TotalItems int      `json:"totalItems"`
	Items      []gbItem `json:"items"`
}

type gbItem struct {
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PublishedDate string   `json:"publishedDate"`
	} `json:"volumeInfo"`
	SearchInfo *struct {
		TextSnippet string `json:"textSnippet"`
	} `json:"searchInfo"`
}

// Next fetches the next page. The first page decides how many follow; if
// it fails the query cannot be paged and the backend is exhausted.
func (g *GoogleBooks) Next(ctx context.Context) ([]RawSource, bool, error) {
	if g.pages >= 0 && g.page >= g.pages {
		return nil, true, nil
	}

	start := g.page * g.cfg.PageSize
	g.page++

	var page gbPage
	if err := g.client.GetJSON(ctx, g.pageURL(start), &page); err != nil {
		if g.pages < 0 {
			return nil, false, fmt.Errorf("google books: first page: %w: %w", err, merge.ErrExhausted)
		}
		return nil, false, fmt.Errorf("google books: page %d: %w", g.page, err)
	}

	if g.pages < 0 {
		g.pages = 1 + g.extraPages(page.TotalItems, len(page.Items))
		if g.cfg.MaxPages > 0 && g.pages > g.cfg.MaxPages {
			g.pages = g.cfg.MaxPages
		}
	}

	out := make([]RawSource, 0, len(page.Items))
	for _, item := range page.Items {
		if src, ok := g.parseItem(item); ok {
			out = append(out, src)
		}
	}
	return out, false, nil
}

// extraPages estimates how many pages remain after the first one.
func (g *GoogleBooks) extraPages(total, firstCount int) int {
	remaining := g.cfg.TotalRatio*float64(total) - float64(firstCount)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining / float64(g.cfg.PageSize)))
}

func (g *GoogleBooks) pageURL(start int) string {
	q := url.Values{}
	q.Set("q", `"`+g.query+`"`)
	q.Set("langRestrict", "en")
	q.Set("startIndex", strconv.Itoa(start))
	q.Set("maxResults", strconv.Itoa(g.cfg.PageSize))
	q.Set("fields", googleBooksFields)
	if g.cfg.APIKey != "" {
		q.Set("key", g.cfg.APIKey)
	}
	return g.cfg.BaseURL + "/books/v1/volumes?" + q.Encode()
}

func (g *GoogleBooks) parseItem(item gbItem) (RawSource, bool) {
	if item.SearchInfo == nil || !snippet.BoldTags.Matches(item.SearchInfo.TextSnippet) {
		return RawSource{}, false
	}
	return RawSource{
		Backend:       GoogleBooksName,
		Title:         item.VolumeInfo.Title,
		Authors:       item.VolumeInfo.Authors,
		PublishedYear: parseYear(item.VolumeInfo.PublishedDate),
		Excerpts:      []string{decodeGoogleSnippet(item.SearchInfo.TextSnippet)},
		Marker:        snippet.BoldTags,
	}, true
}

var (
	spaceBeforePunct = regexp.MustCompile(`\s([.,:;])`)
	danglingHyphen   = regexp.MustCompile(`(\w)-\s+`)
	curlyQuotes      = strings.NewReplacer("“", `"`, "”", `"`, "\u00a0", " ")
)

// decodeGoogleSnippet undoes the HTML escaping of textSnippet and tidies
// the typography. The <b> highlight tags are left alone.
func decodeGoogleSnippet(s string) string {
	s = html.UnescapeString(s)
	s = curlyQuotes.Replace(s)
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = danglingHyphen.ReplaceAllString(s, "$1-")
	return s
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// parseYear reads the first four-digit year in dates like "2004-05-01" or "May 2004".
func parseYear(date string) *int {
	m := yearPattern.FindStringSubmatch(date)
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return intPtr(y)
}
