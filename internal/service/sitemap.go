package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/store"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapSource lists the beach pages to advertise.
type SitemapSource interface {
	ListSitemapEntries(ctx context.Context) ([]store.SitemapEntry, error)
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// SitemapService renders sitemap.xml.
type SitemapService struct {
	source  SitemapSource
	baseURL string
	now     func() time.Time
}

// NewSitemapService creates a sitemap service rooted at baseURL.
func NewSitemapService(source SitemapSource, baseURL string) *SitemapService {
	return &SitemapService{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Render returns the sitemap document: the home page, the favorites page
// and one entry per beach.
func (s *SitemapService) Render(ctx context.Context) ([]byte, error) {
	entries, err := s.source.ListSitemapEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sitemap entries: %w", err)
	}

	set := urlset{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(entries)+2)}
	today := s.now().UTC().Format(time.RFC3339)
	set.URLs = append(set.URLs,
		sitemapURL{Loc: s.baseURL, LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
		sitemapURL{Loc: s.baseURL + "/favorites", LastMod: today, ChangeFreq: "weekly", Priority: "0.5"},
	)
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.baseURL + "/beach/" + url.PathEscape(e.Slug),
			LastMod:    e.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
