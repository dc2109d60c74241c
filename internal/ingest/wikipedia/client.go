// Package wikipedia fetches page summaries from the Wikipedia REST API.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/goccy/go-json"
	"golang.org/x/net/html"

	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

const (
	DefaultBaseURL = "https://en.wikipedia.org"
	userAgent      = "BeachAtlas/1.0 (https://beachatlas.app)"

	defaultTimeout = 5 * time.Second
	serviceName    = "wikipedia"
)

// ErrUpstream is returned for unexpected responses.
var ErrUpstream = errors.New("wikipedia: upstream error")

// Summary is the lead section of an article.
type Summary struct {
	Title    string
	Text     string // Plain text.
	Markdown string // The HTML extract converted to markdown.
}

type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
}

// Client is a Wikipedia REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client against baseURL, or en.wikipedia.org when empty.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Summary returns the summary of the article titled title. Missing
// articles and disambiguation pages return nil.
func (c *Client) Summary(ctx context.Context, title string) (s *Summary, err error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if body.Type != "standard" {
		return nil, nil
	}

	c.logger.Debug("found wikipedia summary", "title", title)

	out := &Summary{Title: body.Title, Text: strings.TrimSpace(body.Extract)}
	if body.ExtractHTML != "" {
		out.Markdown = toMarkdown(body.ExtractHTML)
		if out.Text == "" {
			out.Text = stripHTML(body.ExtractHTML)
		}
	}
	if out.Markdown == "" {
		out.Markdown = out.Text
	}
	return out, nil
}

// TitleFromTag extracts the article title from an OSM wikipedia tag such
// as "en:Navagio".
func TitleFromTag(tag string) string {
	if _, title, ok := strings.Cut(tag, ":"); ok && title != "" {
		return title
	}
	return tag
}

// FirstSentence returns the first sentence of text.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, ". "); i >= 0 {
		return text[:i+1]
	}
	return text
}

func toMarkdown(s string) string {
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return stripHTML(s)
	}
	return strings.TrimSpace(markdown)
}

// stripHTML removes HTML tags and returns plain text.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseWhitespace(htmlTagRegex.ReplaceAllString(s, " "))
	}

	var buf strings.Builder
	extractText(doc, &buf)
	return collapseWhitespace(buf.String())
}

func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li":
			buf.WriteString(" ")
		}
	}
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
