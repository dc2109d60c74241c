// Package weather fetches current conditions from Open-Meteo.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/beachatlas/beachatlas-server/internal/breaker"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com"
	DefaultTimeout = 3 * time.Second

	serviceName = "weather"
)

// ErrUpstream is returned for non-200 responses.
var ErrUpstream = errors.New("weather: upstream error")

// Current is the current-conditions block of a forecast.
type Current struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddirection"`
	WeatherCode   int     `json:"weathercode"`
	IsDay         int     `json:"is_day"`
	Time          string  `json:"time"`
}

// Label returns the display label for the weather code.
func (c Current) Label() string {
	return CodeLabel(c.WeatherCode)
}

type forecastResponse struct {
	CurrentWeather *Current `json:"current_weather"`
}

// Options configures the client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is an Open-Meteo client guarded by a circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker[*Current]
	logger  *slog.Logger
}

// NewClient creates a weather client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: breaker.New[*Current](serviceName, breaker.Settings{}, opts.Logger),
		logger:  opts.Logger,
	}
}

// Current returns current conditions at a point. Any failure, including an
// open breaker, yields nil: weather is decoration and never fails a page.
func (c *Client) Current(ctx context.Context, lat, lon float64) *Current {
	cur, err := c.breaker.Execute(func() (*Current, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		c.logger.Warn("weather unavailable", "lat", lat, "lon", lon, "error", err)
		return nil
	}
	return cur
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (cur *Current, err error) {
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if body.CurrentWeather == nil {
		return nil, fmt.Errorf("%w: no current_weather block", ErrUpstream)
	}
	return body.CurrentWeather, nil
}

// CodeLabel maps a WMO weather code to a short label.
func CodeLabel(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code >= 1 && code <= 3:
		return "Partly Cloudy"
	case code == 45 || code == 48:
		return "Foggy"
	case code >= 51 && code <= 55:
		return "Drizzle"
	case code >= 61 && code <= 65:
		return "Rainy"
	case code >= 71 && code <= 75:
		return "Snowy"
	case code >= 80 && code <= 82:
		return "Showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Cloudy"
	}
}
