// Package mailer sends transactional email through the Resend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/beachatlas/beachatlas-server/internal/breaker"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.resend.com"
	DefaultFrom    = "BeachAtlas <onboarding@resend.dev>"

	defaultTimeout = 10 * time.Second
	serviceName    = "mail"
	welcomeSubject = "Welcome to Paradise! 🏖️"
)

// Sentinel errors.
var (
	ErrDisabled = errors.New("mailer: no api key configured")
	ErrUpstream = errors.New("mailer: upstream error")
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family:sans-serif;background-color:#f8fafc;padding:40px 20px;color:#0f172a">
  <div style="max-width:600px;margin:0 auto;background-color:#ffffff;border-radius:16px;overflow:hidden">
    <div style="background-color:#f43f5e;padding:32px;text-align:center">
      <h1 style="color:#ffffff;margin:0;font-size:24px">BeachAtlas</h1>
    </div>
    <div style="padding:32px">
      <h2 style="margin-top:0">Welcome to Paradise! 🏖️</h2>
      <p>Thanks for joining the BeachAtlas community! We're thrilled to have you on board.</p>
      <p>You'll be the first to know about:</p>
      <ul>
        <li>Hidden gem beaches around the world</li>
        <li>Curated travel tips and guides</li>
        <li>New features to help you find your perfect escape</li>
      </ul>
      <div style="margin-top:32px;text-align:center">
        <a href="{{.SiteURL}}" style="background-color:#f43f5e;color:#ffffff;padding:12px 24px;border-radius:8px;text-decoration:none;font-weight:bold">Explore Beaches</a>
      </div>
    </div>
    <div style="padding:24px;background-color:#f1f5f9;text-align:center;font-size:12px;color:#64748b">
      <p>You're receiving this because you signed up for BeachAtlas with {{.Email}}.</p>
    </div>
  </div>
</div>`))

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Options configures the client.
type Options struct {
	APIKey  string
	From    string
	BaseURL string
	SiteURL string // Linked from the welcome email.
	Logger  *slog.Logger
}

// Client sends email via Resend.
type Client struct {
	apiKey  string
	from    string
	baseURL string
	siteURL string
	http    *http.Client
	breaker *breaker.Breaker[struct{}]
	logger  *slog.Logger
}

// NewClient creates a mail client. Without an API key every send returns
// ErrDisabled.
func NewClient(opts Options) *Client {
	if opts.From == "" {
		opts.From = DefaultFrom
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		apiKey:  opts.APIKey,
		from:    opts.From,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		siteURL: opts.SiteURL,
		http:    &http.Client{Timeout: defaultTimeout},
		breaker: breaker.New[struct{}](serviceName, breaker.Settings{}, opts.Logger),
		logger:  opts.Logger,
	}
}

// SendWelcome sends the newsletter welcome email to addr.
func (c *Client) SendWelcome(ctx context.Context, addr string) error {
	if c.apiKey == "" {
		return ErrDisabled
	}

	var html bytes.Buffer
	if err := welcomeTemplate.Execute(&html, map[string]string{"Email": addr, "SiteURL": c.siteURL}); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.send(ctx, sendRequest{
			From:    c.from,
			To:      []string{addr},
			Subject: welcomeSubject,
			HTML:    html.String(),
		})
	})
	return err
}

func (c *Client) send(ctx context.Context, msg sendRequest) (err error) {
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, body)
	}

	var sent struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sent); err == nil {
		c.logger.Debug("email sent", "id", sent.ID)
	}
	return nil
}
