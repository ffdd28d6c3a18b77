package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"phrasehub/internal/snippet"
)

const (
	OpenLibraryName    = "open_library"
	OpenLibraryBaseURL = "https://openlibrary.org"

	openLibraryMaxPages = 10
	openLibraryPageSize = 20
)

// OpenLibraryConfig configures the Open Library full-text backend.
type OpenLibraryConfig struct {
	BaseURL  string
	MaxPages int
	// PageSize is the number of hits the API returns per page; it is used
	// to tell when the reported total has been reached.
	PageSize int
}

func (c OpenLibraryConfig) withDefaults() OpenLibraryConfig {
	if c.BaseURL == "" {
		c.BaseURL = OpenLibraryBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxPages <= 0 {
		c.MaxPages = openLibraryMaxPages
	}
	if c.PageSize <= 0 {
		c.PageSize = openLibraryPageSize
	}
	return c
}

// OpenLibrary pages through search/inside.json.
type OpenLibrary struct {
	cfg    OpenLibraryConfig
	client *Client
	query  string

	page  int // last page requested, 1-based
	total int // reported hit count, -1 until known
	done  bool
}

// NewOpenLibrary returns a backend serving query.
func NewOpenLibrary(query string, cfg OpenLibraryConfig, client *Client) *OpenLibrary {
	return &OpenLibrary{cfg: cfg.withDefaults(), client: client, query: query, total: -1}
}

// OpenLibraryFactory binds cfg and client into a Factory.
func OpenLibraryFactory(cfg OpenLibraryConfig, client *Client) Factory {
	return func(query string) Backend { return NewOpenLibrary(query, cfg, client) }
}

func (o *OpenLibrary) Name() string { return OpenLibraryName }

type olPage struct {
	Hits struct {
		Total int     `json:"total"`
		Hits  []olHit `json:"hits"`
	} `json:"hits"`
}

type olHit struct {
	Fields struct {
		MetaTitle   []string          `json:"meta_title"`
		MetaCreator []string          `json:"meta_creator"`
		MetaYear    []json.RawMessage `json:"meta_year"`
	} `json:"fields"`
	Highlight struct {
		Text []string `json:"text"`
	} `json:"highlight"`
	Edition *struct {
		Title   string `json:"title"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
		PublishDate string `json:"publish_date"`
	} `json:"edition"`
}

func (o *OpenLibrary) Next(ctx context.Context) ([]RawSource, bool, error) {
	if o.done || o.page >= o.cfg.MaxPages || (o.total >= 0 && o.page*o.cfg.PageSize >= o.total) {
		return nil, true, nil
	}
	o.page++

	var page olPage
	if err := o.client.GetJSON(ctx, o.pageURL(o.page), &page); err != nil {
		return nil, false, fmt.Errorf("open library: page %d: %w", o.page, err)
	}
	o.total = page.Hits.Total
	if len(page.Hits.Hits) == 0 {
		o.done = true
		return nil, true, nil
	}

	out := make([]RawSource, 0, len(page.Hits.Hits))
	for _, hit := range page.Hits.Hits {
		if src, ok := parseHit(hit); ok {
			out = append(out, src)
		}
	}
	return out, false, nil
}

func (o *OpenLibrary) pageURL(page int) string {
	q := url.Values{}
	q.Set("q", `"`+o.query+`"`)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return o.cfg.BaseURL + "/search/inside.json?" + q.Encode()
}

func parseHit(hit olHit) (RawSource, bool) {
	excerpts := make([]string, 0, len(hit.Highlight.Text))
	for _, text := range hit.Highlight.Text {
		if snippet.TripleBraces.Matches(text) {
			excerpts = append(excerpts, text)
		}
	}
	if len(excerpts) == 0 {
		return RawSource{}, false
	}

	src := RawSource{
		Backend:  OpenLibraryName,
		Excerpts: excerpts,
		Marker:   snippet.TripleBraces,
	}
	if e := hit.Edition; e != nil {
		src.Title = e.Title
		for _, a := range e.Authors {
			if a.Name != "" {
				src.Authors = append(src.Authors, a.Name)
			}
		}
		src.PublishedYear = parseYear(e.PublishDate)
	}
	if src.Title == "" && len(hit.Fields.MetaTitle) > 0 {
		src.Title = hit.Fields.MetaTitle[0]
	}
	if len(src.Authors) == 0 {
		src.Authors = hit.Fields.MetaCreator
	}
	if src.PublishedYear == nil && len(hit.Fields.MetaYear) > 0 {
		src.PublishedYear = parseMetaYear(hit.Fields.MetaYear[0])
	}
	return src, true
}

// parseMetaYear accepts both 1999 and "1999".
func parseMetaYear(raw json.RawMessage) *int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return intPtr(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseYear(s)
	}
	return nil
}
