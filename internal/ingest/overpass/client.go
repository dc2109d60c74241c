// Package overpass queries OpenStreetMap beach features through the public
// Overpass API, failing over between mirrors.
package overpass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

// DefaultInstances are the mirrors tried in order.
var DefaultInstances = []string{
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass-api.de/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

const (
	defaultTimeout = 60 * time.Second
	serviceName    = "overpass"
)

// ErrAllInstancesFailed is returned when no mirror answered.
var ErrAllInstancesFailed = errors.New("overpass: all instances failed")

// Area selects where to search: a country by its English name, or a
// bounding box.
type Area struct {
	Country string
	BBox    *BBox
}

// BBox is a south-west/north-east bounding box.
type BBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// ParseArea reads "Greece" or "minLat,minLon,maxLat,maxLon".
func ParseArea(arg string) (Area, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Area{}, errors.New("area is required")
	}
	parts := strings.Split(arg, ",")
	if len(parts) == 1 {
		return Area{Country: arg}, nil
	}
	if len(parts) != 4 {
		return Area{}, fmt.Errorf("bounding box needs 4 numbers, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Area{}, fmt.Errorf("invalid bounding box value %q: %w", p, err)
		}
		v[i] = f
	}
	box := &BBox{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
		return Area{}, errors.New("bounding box minimums exceed maximums")
	}
	return Area{BBox: box}, nil
}

// Name identifies the area in output file names.
func (a Area) Name() string {
	if a.BBox != nil {
		return fmt.Sprintf("bbox-%s-%s-%s-%s",
			formatCoord(a.BBox.MinLat), formatCoord(a.BBox.MinLon),
			formatCoord(a.BBox.MaxLat), formatCoord(a.BBox.MaxLon))
	}
	return strings.ToLower(strings.ReplaceAll(a.Country, " ", "-"))
}

// Query builds the Overpass QL selecting every natural=beach feature in a.
func (a Area) Query() string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:180];\n")

	filter := ""
	if a.BBox != nil {
		filter = fmt.Sprintf("(%s,%s,%s,%s)",
			formatCoord(a.BBox.MinLat), formatCoord(a.BBox.MinLon),
			formatCoord(a.BBox.MaxLat), formatCoord(a.BBox.MaxLon))
	} else {
		fmt.Fprintf(&b, "area[\"name\"=%q][\"admin_level\"=\"2\"]->.searchArea;\n", a.Country)
		filter = "(area.searchArea)"
	}

	b.WriteString("(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s[\"natural\"=\"beach\"]%s;\n", kind, filter)
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Element is one OSM feature. Ways and relations carry a Center instead of
// Lat/Lon.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Center is the computed centroid of a way or relation.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position returns the element's coordinates.
func (e Element) Position() (lat, lon float64) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon
	}
	return e.Lat, e.Lon
}

// Region returns the first administrative region tag present.
func (e Element) Region() string {
	for _, k := range []string{"addr:state", "addr:province", "region"} {
		if v := e.Tags[k]; v != "" {
			return v
		}
	}
	return ""
}

type response struct {
	Elements []Element `json:"elements"`
}

// Client queries Overpass mirrors.
type Client struct {
	instances  []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client over instances, or DefaultInstances when empty.
func NewClient(instances []string, logger *slog.Logger) *Client {
	if len(instances) == 0 {
		instances = DefaultInstances
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		instances:  instances,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// Beaches runs the beach query for a, trying each mirror in turn until one
// succeeds.
func (c *Client) Beaches(ctx context.Context, a Area) ([]Element, error) {
	query := a.Query()

	var errs []error
	for _, instance := range c.instances {
		c.logger.Info("querying overpass", "instance", instance, "area", a.Name())

		elements, err := c.post(ctx, instance, query)
		if err == nil {
			c.logger.Info("overpass query complete", "instance", instance, "elements", len(elements))
			return elements, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Warn("overpass instance failed", "instance", instance, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", instance, err))
	}
	return nil, fmt.Errorf("%w: %w", ErrAllInstancesFailed, errors.Join(errs...))
}

func (c *Client) post(ctx context.Context, endpoint, query string) (elements []Element, err error) {
	defer func(start time.Time) { metrics.RecordExternalCall(serviceName, start, err) }(time.Now())

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if out.Elements == nil {
		out.Elements = []Element{}
	}
	return out.Elements, nil
}
