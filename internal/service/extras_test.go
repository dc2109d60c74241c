package service

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/store"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendWelcome(_ context.Context, addr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, addr)
	return m.err
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc := NewNewsletterService(f.store, mailer, testLogger())

	res, err := svc.Subscribe(ctx, "  reader@example.com ")
	require.NoError(t, err)
	assert.Equal(t, &SubscribeResult{Success: true, Message: MsgSubscribed}, res)
	assert.Equal(t, []string{"reader@example.com"}, mailer.sent)

	res, err = svc.Subscribe(ctx, "Reader@Example.com")
	require.NoError(t, err)
	assert.Equal(t, &SubscribeResult{Success: true, Message: MsgAlreadySubscribed}, res)
	assert.Len(t, mailer.sent, 1)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewNewsletterService(f.store, nil, testLogger())

	for _, email := range []string{"", "not-an-email", "a@"} {
		_, err := svc.Subscribe(context.Background(), email)
		require.ErrorIs(t, err, domainerrors.ErrValidation, email)

		var derr *domainerrors.Error
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, MsgInvalidEmail, derr.Message)
	}
}

func TestSubscribe_MailFailureStillSubscribes(t *testing.T) {
	f := newFixture(t)
	svc := NewNewsletterService(f.store, &fakeMailer{err: errors.New("smtp down")}, testLogger())

	res, err := svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.True(t, res.Success)

	sub, err := f.store.GetSubscriberByEmail(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)
}

type staticSitemap []store.SitemapEntry

func (s staticSitemap) ListSitemapEntries(context.Context) ([]store.SitemapEntry, error) {
	return s, nil
}

func TestSitemapRender(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewSitemapService(staticSitemap{{Slug: "navagio", UpdatedAt: updated}}, "https://beachatlas.example/")
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }

	body, err := svc.Render(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<?xml"))

	var doc urlset
	require.NoError(t, xml.Unmarshal(body, &doc))
	require.Len(t, doc.URLs, 3)

	assert.Equal(t, sitemapURL{Loc: "https://beachatlas.example", LastMod: "2026-04-01T00:00:00Z", ChangeFreq: "daily", Priority: "1.0"}, doc.URLs[0])
	assert.Equal(t, "https://beachatlas.example/favorites", doc.URLs[1].Loc)
	assert.Equal(t, "0.5", doc.URLs[1].Priority)
	assert.Equal(t, sitemapURL{
		Loc:        "https://beachatlas.example/beach/navagio",
		LastMod:    "2026-03-01T12:00:00Z",
		ChangeFreq: "weekly",
		Priority:   "0.8",
	}, doc.URLs[2])
}

type fakeWeather struct{ cur *weather.Current }

func (w fakeWeather) Current(context.Context, float64, float64) *weather.Current { return w.cur }

type fakeConcierge struct {
	mu          sync.Mutex
	catalogSize int
	current     string
	messages    int
}

func (c *fakeConcierge) SummarizeVibe(_ context.Context, name, _ string, vibes []string) string {
	return name + ": " + strings.Join(vibes, "/")
}

func (c *fakeConcierge) Chat(_ context.Context, catalog []domain.Beach, currentSlug string, messages []ai.Message) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalogSize = len(catalog)
	c.current = currentSlug
	c.messages = len(messages)
	return "Try Navagio!"
}

func TestAssistant_Weather(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBeach(t, "navagio", "Greece")

	svc := NewAssistantService(f.store, fakeWeather{cur: &weather.Current{Temperature: 27, WeatherCode: 0}}, &fakeConcierge{}, testLogger())
	report, err := svc.Weather(ctx, "navagio")
	require.NoError(t, err)
	assert.True(t, report.Available)
	assert.Equal(t, "Clear", report.Label)

	down := NewAssistantService(f.store, fakeWeather{}, &fakeConcierge{}, testLogger())
	report, err = down.Weather(ctx, "navagio")
	require.NoError(t, err)
	assert.False(t, report.Available)

	_, err = svc.Weather(ctx, "nowhere")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAssistant_VibeSummary(t *testing.T) {
	f := newFixture(t)
	f.addBeach(t, "navagio", "Greece", withVibes("Secluded", "Scenic"))

	svc := NewAssistantService(f.store, fakeWeather{}, &fakeConcierge{}, testLogger())
	text, err := svc.VibeSummary(context.Background(), "navagio")
	require.NoError(t, err)
	assert.Equal(t, "navagio: Secluded/Scenic", text)
}

func TestAssistant_Chat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBeach(t, "navagio", "Greece")
	f.addBeach(t, "tulum", "Mexico")

	concierge := &fakeConcierge{}
	svc := NewAssistantService(f.store, fakeWeather{}, concierge, testLogger())

	history := make([]ai.Message, 0, MaxChatMessages+5)
	for i := 0; i < MaxChatMessages+5; i++ {
		history = append(history, ai.Message{Role: ai.RoleUser, Content: "hello"})
	}
	reply, err := svc.Chat(ctx, "navagio", history)
	require.NoError(t, err)
	assert.Equal(t, "Try Navagio!", reply)
	assert.Equal(t, 2, concierge.catalogSize)
	assert.Equal(t, "navagio", concierge.current)
	assert.Equal(t, MaxChatMessages, concierge.messages)

	_, err = svc.Chat(ctx, "", nil)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Chat(ctx, "", []ai.Message{{Role: "system", Content: "x"}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
