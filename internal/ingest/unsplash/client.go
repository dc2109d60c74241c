// Package unsplash searches the Unsplash API for beach photos.
package unsplash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"

	defaultTimeout = 5 * time.Second
	serviceName    = "unsplash"
)

// Sentinel errors for Unsplash operations.
var (
	ErrDisabled  = errors.New("unsplash: no access key configured")
	ErrForbidden = errors.New("unsplash: forbidden (rate limit exceeded or invalid key)")
	ErrUpstream  = errors.New("unsplash: upstream error")
)

// Options configures the client.
type Options struct {
	AccessKey string
	BaseURL   string
	// Interval is the minimum spacing between requests. Zero disables pacing.
	Interval time.Duration
	Logger   *slog.Logger
}

// Client is a paced Unsplash search client.
type Client struct {
	accessKey   string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		BlurHash string `json:"blur_hash"`
		User     struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// NewClient creates an Unsplash client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Client{
		accessKey:   opts.AccessKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      opts.Logger,
	}
}

// Enabled reports whether an access key is configured.
func (c *Client) Enabled() bool {
	return c.accessKey != ""
}

// SearchPhoto returns the top landscape photo for query, or nil when there
// are no results. A 403 returns ErrForbidden, which callers treat as a
// signal to stop.
func (c *Client) SearchPhoto(ctx context.Context, query string) (photo *domain.Photo, err error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	c.logger.Debug("searching unsplash", "query", query)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, body)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}

	r := out.Results[0]
	return &domain.Photo{
		URL:             r.URLs.Regular,
		Thumbnail:       r.URLs.Thumb,
		Photographer:    r.User.Name,
		PhotographerURL: r.User.Links.HTML,
		BlurHash:        r.BlurHash,
	}, nil
}

// QueriesFor returns the search queries tried for a beach, most specific
// first.
func QueriesFor(name, region, country string) []string {
	candidates := []string{
		strings.Join(strings.Fields(name+" beach "+region+" "+country), " "),
		strings.Join(strings.Fields(name+" beach "+country), " "),
		strings.Join(strings.Fields(name+" beach"), " "),
	}
	out := make([]string, 0, len(candidates))
	for _, q := range candidates {
		if len(out) == 0 || out[len(out)-1] != q {
			out = append(out, q)
		}
	}
	return out
}
