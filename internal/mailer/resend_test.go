package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWelcome(t *testing.T) {
	var (
		mu   sync.Mutex
		got  sendRequest
		auth string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		mu.Lock()
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "re_test", BaseURL: server.URL, SiteURL: "https://beachatlas.example"})
	require.NoError(t, client.SendWelcome(context.Background(), "reader@example.com"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, []string{"reader@example.com"}, got.To)
	assert.Equal(t, DefaultFrom, got.From)
	assert.Equal(t, welcomeSubject, got.Subject)
	assert.Contains(t, got.HTML, "signed up for BeachAtlas with reader@example.com")
	assert.Contains(t, got.HTML, `href="https://beachatlas.example"`)
}

func TestSendWelcome_EscapesAddress(t *testing.T) {
	var got sendRequest
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "re_test", BaseURL: server.URL})
	require.NoError(t, client.SendWelcome(context.Background(), "<b>@example.com"))

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, got.HTML, "<b>@")
}

func TestSendWelcome_Errors(t *testing.T) {
	client := NewClient(Options{})
	assert.ErrorIs(t, client.SendWelcome(context.Background(), "a@example.com"), ErrDisabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer server.Close()

	client = NewClient(Options{APIKey: "re_test", BaseURL: server.URL})
	assert.ErrorIs(t, client.SendWelcome(context.Background(), "a@example.com"), ErrUpstream)
}
