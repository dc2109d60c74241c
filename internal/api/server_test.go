package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/cache"
	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
	"github.com/beachatlas/beachatlas-server/internal/search"
	"github.com/beachatlas/beachatlas-server/internal/service"
	"github.com/beachatlas/beachatlas-server/internal/store/sqlite"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

type stubWeather struct{ cur *weather.Current }

func (w stubWeather) Current(context.Context, float64, float64) *weather.Current { return w.cur }

type stubConcierge struct{}

func (stubConcierge) SummarizeVibe(_ context.Context, name, _ string, vibes []string) string {
	return name + " is " + strings.Join(vibes, " and ")
}

func (stubConcierge) Chat(_ context.Context, catalog []domain.Beach, _ string, _ []ai.Message) string {
	return "I know " + catalog[0].Name
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *stubMailer) SendWelcome(_ context.Context, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, addr)
	return nil
}

type testServer struct {
	server *Server
	api    humatest.TestAPI
	store  *sqlite.Store
	assets *images.Storage
	mailer *stubMailer
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(dir, "beaches.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	idx, err := search.Open(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	s.SetSearchIndexer(idx)

	views, err := cache.Open(cache.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { views.Close() })

	assets, err := images.NewStorage(filepath.Join(dir, "assets"), "http://localhost/assets")
	require.NoError(t, err)

	mailer := &stubMailer{}
	services := &Services{
		Catalog: service.NewCatalogService(s,
			service.NewFilterResolver(s, idx, logger),
			service.NewHydrator(s, logger),
			idx, views, logger),
		Favorite:   service.NewFavoriteService(s, views, logger),
		Newsletter: service.NewNewsletterService(s, mailer, logger),
		Sitemap:    service.NewSitemapService(s, "https://beachatlas.example"),
		Assistant:  service.NewAssistantService(s, stubWeather{cur: &weather.Current{Temperature: 28}}, stubConcierge{}, logger),
		Store:      s,
		Search:     idx,
	}

	server := NewServer(services, Options{Assets: assets}, logger)
	t.Cleanup(server.Close)

	return &testServer{
		server: server,
		api:    humatest.Wrap(t, server.API()),
		store:  s,
		assets: assets,
		mailer: mailer,
	}
}

func (ts *testServer) addBeach(t *testing.T, slug, country string, vibes ...string) domain.Beach {
	t.Helper()
	rec := &domain.BeachRecord{
		Beach: domain.Beach{
			Slug:             slug,
			Name:             strings.ToUpper(slug[:1]) + slug[1:],
			Country:          country,
			ShortDescription: "White sand and clear water",
			Coordinates:      domain.Coordinates{Lat: 37.8, Lon: 20.6},
		},
		Vibes:  vibes,
		Photos: []domain.Photo{{URL: "https://img.example/" + slug + ".jpg"}},
	}
	require.NoError(t, ts.store.CreateBeachRecord(context.Background(), rec))
	return rec.Beach
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func sessionCookieFrom(t *testing.T, header http.Header) string {
	t.Helper()
	for _, c := range (&http.Response{Header: header}).Cookies() {
		if c.Name == SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func TestCreateSession(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/session")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decodeBody[SessionResponse](t, resp.Body.Bytes())
	assert.True(t, body.Created)
	assert.True(t, service.ValidSessionToken(body.SessionID))

	cookies := (&http.Response{Header: resp.Header()}).Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, body.SessionID, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(sessionCookieMaxAge.Seconds()), c.MaxAge)

	// An existing valid token is reused.
	resp = ts.api.Post("/api/v1/session", "Cookie: session_id="+body.SessionID)
	require.Equal(t, http.StatusOK, resp.Code)
	again := decodeBody[SessionResponse](t, resp.Body.Bytes())
	assert.False(t, again.Created)
	assert.Equal(t, body.SessionID, again.SessionID)
}

func TestListBeaches(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece", "Secluded")
	ts.addBeach(t, "tulum", "Mexico", "Lively")
	ts.addBeach(t, "myrtos", "Greece", "Scenic")

	resp := ts.api.Get("/api/v1/beaches?country=Greece&limit=1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, resp.Header().Get("Set-Cookie"))

	page := decodeBody[domain.Page](t, resp.Body.Bytes())
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "Greece", page.Items[0].Country)
	require.NotNil(t, page.Items[0].PrimaryPhoto)

	resp = ts.api.Get("/api/v1/beaches?country=Greece&limit=1&cursor=" + *page.NextCursor)
	require.Equal(t, http.StatusOK, resp.Code)
	next := decodeBody[domain.Page](t, resp.Body.Bytes())
	require.Len(t, next.Items, 1)
	assert.NotEqual(t, page.Items[0].ID, next.Items[0].ID)
	assert.False(t, next.HasMore)
	assert.Nil(t, next.NextCursor)

	resp = ts.api.Get("/api/v1/beaches?vibe=Lively")
	require.Equal(t, http.StatusOK, resp.Code)
	lively := decodeBody[domain.Page](t, resp.Body.Bytes())
	require.Len(t, lively.Items, 1)
	assert.Equal(t, "tulum", lively.Items[0].Slug)
	assert.Equal(t, []string{"Lively"}, lively.Items[0].Vibes)
}

func TestListBeaches_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"limit too large", "limit=51"},
		{"negative limit", "limit=-1"},
		{"unknown crowd", "crowd=Packed"},
		{"partial near", "near_lat=37.8&near_lon=20.6"},
		{"radius only", "radius_km=10"},
		{"non numeric near", "near_lat=north&near_lon=20.6&radius_km=5"},
		{"zero radius", "near_lat=37.8&near_lon=20.6&radius_km=0"},
		{"bad cursor", "cursor=not-a-cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/beaches?" + tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			body := decodeBody[APIError](t, resp.Body.Bytes())
			assert.Equal(t, "VALIDATION", body.Code)
		})
	}
}

func TestListBeaches_Near(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece")

	resp := ts.api.Get("/api/v1/beaches?near_lat=37.8&near_lon=20.6&radius_km=5")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	page := decodeBody[domain.Page](t, resp.Body.Bytes())
	require.Len(t, page.Items, 1)

	resp = ts.api.Get("/api/v1/beaches?near_lat=0&near_lon=0&radius_km=5")
	require.Equal(t, http.StatusOK, resp.Code)
	page = decodeBody[domain.Page](t, resp.Body.Bytes())
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestGetBeach(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece", "Secluded")
	ts.addBeach(t, "myrtos", "Greece")

	resp := ts.api.Get("/api/v1/beaches/navagio")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decodeBody[domain.DetailView](t, resp.Body.Bytes())
	require.NotNil(t, view.Beach)
	assert.Equal(t, "navagio", view.Beach.Slug)
	assert.Equal(t, []string{"Secluded"}, view.Beach.Vibes)
	require.Len(t, view.Similar, 1)
	assert.Equal(t, "myrtos", view.Similar[0].Slug)

	resp = ts.api.Get("/api/v1/beaches/atlantis")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[APIError](t, resp.Body.Bytes()).Code)
}

func TestToggleFavorite(t *testing.T) {
	ts := setupTestServer(t)
	beach := ts.addBeach(t, "navagio", "Greece")
	ts.addBeach(t, "tulum", "Mexico")

	// No cookie: a session is started.
	resp := ts.api.Post("/api/v1/beaches/" + beach.ID + "/favorite")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeBody[domain.ToggleResult](t, resp.Body.Bytes())
	assert.True(t, result.IsFavorite)
	assert.Equal(t, beach.ID, result.BeachID)

	session := sessionCookieFrom(t, resp.Header())
	require.NotEmpty(t, session)
	cookie := "Cookie: session_id=" + session

	resp = ts.api.Get("/api/v1/beaches?favorites=true", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	page := decodeBody[domain.Page](t, resp.Body.Bytes())
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsFavorite)

	// Another session sees nothing.
	resp = ts.api.Get("/api/v1/beaches?favorites=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeBody[domain.Page](t, resp.Body.Bytes()).Items)

	// Existing session: no new cookie, state flips back.
	resp = ts.api.Post("/api/v1/beaches/"+beach.ID+"/favorite", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Header().Get("Set-Cookie"))
	assert.False(t, decodeBody[domain.ToggleResult](t, resp.Body.Bytes()).IsFavorite)

	resp = ts.api.Get("/api/v1/beaches/navagio", cookie)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeBody[domain.DetailView](t, resp.Body.Bytes()).Beach.IsFavorite)

	resp = ts.api.Post("/api/v1/beaches/missing/favorite", cookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListFilterOptions(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "tulum", "Mexico", "Lively")
	ts.addBeach(t, "navagio", "Greece", "Secluded")

	resp := ts.api.Get("/api/v1/filters")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, CacheOneHour, resp.Header().Get("Cache-Control"))

	options := decodeBody[domain.FilterOptions](t, resp.Body.Bytes())
	assert.Equal(t, []string{"Greece", "Mexico"}, options.Countries)
	assert.Equal(t, []string{"Lively", "Secluded"}, options.Vibes)
	assert.Equal(t, []string{}, options.Activities)
}

func TestSearchBeaches(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece")
	ts.addBeach(t, "tulum", "Mexico")

	resp := ts.api.Get("/api/v1/search?q=navagio")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decodeBody[SearchResponse](t, resp.Body.Bytes())
	require.Len(t, body.Beaches, 1)
	assert.Equal(t, "navagio", body.Beaches[0].Slug)

	resp = ts.api.Get("/api/v1/search?q=%20")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAssistantRoutes(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece", "Secluded")

	resp := ts.api.Get("/api/v1/beaches/navagio/weather")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report := decodeBody[service.WeatherReport](t, resp.Body.Bytes())
	assert.True(t, report.Available)
	require.NotNil(t, report.Current)
	assert.InDelta(t, 28.0, report.Current.Temperature, 0.001)

	resp = ts.api.Get("/api/v1/beaches/navagio/vibe-summary")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Navagio is Secluded", decodeBody[VibeSummaryResponse](t, resp.Body.Bytes()).Summary)

	resp = ts.api.Get("/api/v1/beaches/atlantis/weather")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post("/api/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "Where should I swim?"}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "I know Navagio", decodeBody[ChatResponse](t, resp.Body.Bytes()).Reply)

	resp = ts.api.Post("/api/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "admin", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNewsletter(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/newsletter", map[string]any{"email": "Sun@Example.com"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeBody[service.SubscribeResult](t, resp.Body.Bytes())
	assert.True(t, result.Success)
	assert.Equal(t, service.MsgSubscribed, result.Message)

	resp = ts.api.Post("/api/v1/newsletter", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, service.MsgInvalidEmail, decodeBody[APIError](t, resp.Body.Bytes()).Message)
}

func TestNewsletter_RateLimited(t *testing.T) {
	ts := setupTestServer(t)

	var last *httptest.ResponseRecorder
	for range 4 {
		last = ts.api.Post("/api/v1/newsletter", map[string]any{"email": "sun@example.com"})
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "RATE_LIMITED", decodeBody[APIError](t, last.Body.Bytes()).Code)

	// Other routes are not limited.
	resp := ts.api.Get("/api/v1/filters")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSitemap(t *testing.T) {
	ts := setupTestServer(t)
	ts.addBeach(t, "navagio", "Greece")

	resp := ts.api.Get("/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, resp.Body.String(), "https://beachatlas.example/beach/navagio")
}

func TestAssets(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.assets.Save(images.BeachKey("navagio", "cove.jpg"), []byte("jpeg bytes")))

	resp := ts.api.Get("/assets/" + images.BeachKey("navagio", "cove.jpg"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "jpeg bytes", resp.Body.String())

	resp = ts.api.Get("/assets/beaches/")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/assets/beaches/missing.jpg")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMetrics(t *testing.T) {
	ts := setupTestServer(t)
	ts.api.Get("/api/v1/filters")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "beachatlas_http_request_duration_seconds")
}

func TestParseNear(t *testing.T) {
	q, err := parseNear("", "", "")
	require.NoError(t, err)
	assert.Nil(t, q)

	q, err = parseNear("37.5", "-20.25", "12")
	require.NoError(t, err)
	assert.Equal(t, &domain.NearQuery{Lat: 37.5, Lon: -20.25, RadiusKm: 12}, q)

	_, err = parseNear("37.5", "", "12")
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1:1234"))
	assert.Equal(t, "2001:db8::1", clientIP("[2001:db8::1]:443"))
	assert.Equal(t, "203.0.113.9", clientIP("203.0.113.9"))
}
