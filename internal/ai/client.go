// Package ai talks to the Gemini generateContent API for the beach vibe
// summaries and the concierge chat.
package ai

import (
	"bytes"
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

	"github.com/beachatlas/beachatlas-server/internal/breaker"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-flash-latest"
	DefaultTimeout = 10 * time.Second

	serviceName = "ai"
)

// Sentinel errors.
var (
	ErrDisabled  = errors.New("ai: no api key configured")
	ErrUpstream  = errors.New("ai: upstream error")
	ErrNoContent = errors.New("ai: empty response")
)

// Role is the author of a chat turn.
type Role string

// Chat roles understood by Gemini.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user model"`
	Content string `json:"content" validate:"required,max=4000"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Options configures the client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is a Gemini client guarded by a circuit breaker.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker[string]
	logger  *slog.Logger
}

// NewClient creates an AI client. An empty API key yields a client whose
// calls all return ErrDisabled.
func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.APIKey == "" {
		opts.Logger.Warn("GEMINI_API_KEY is not set, AI features will degrade")
	}
	return &Client{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: breaker.New[string](serviceName, breaker.Settings{}, opts.Logger),
		logger:  opts.Logger,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Generate sends a conversation and returns the model's reply text.
func (c *Client) Generate(ctx context.Context, turns []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("%w: no messages", ErrNoContent)
	}
	return c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, turns)
	})
}

func (c *Client) generate(ctx context.Context, turns []Message) (text string, err error) {
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	reqBody := generateRequest{Contents: make([]content, len(turns))}
	for i, t := range turns {
		reqBody.Contents[i] = content{Role: string(t.Role), Parts: []part{{Text: t.Content}}}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoContent
	}
	return strings.TrimSpace(sb.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
