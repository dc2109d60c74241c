package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneResult = `{"results":[{"urls":{"regular":"https://images.example/r.jpg","thumb":"https://images.example/t.jpg"},
"blur_hash":"LKO2?U%2Tw=w]~RBVZRi};RPxuwH","user":{"name":"Ana","links":{"html":"https://unsplash.com/@ana"}}}]}`

func TestSearchPhoto(t *testing.T) {
	var auth, query atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		query.Store(r.URL.Query().Get("query"))
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		w.Write([]byte(oneResult))
	}))
	defer server.Close()

	client := NewClient(Options{AccessKey: "key", BaseURL: server.URL})
	photo, err := client.SearchPhoto(context.Background(), "Navagio beach Greece")
	require.NoError(t, err)
	require.NotNil(t, photo)

	assert.Equal(t, "https://images.example/r.jpg", photo.URL)
	assert.Equal(t, "https://images.example/t.jpg", photo.Thumbnail)
	assert.Equal(t, "Ana", photo.Photographer)
	assert.Equal(t, "https://unsplash.com/@ana", photo.PhotographerURL)
	assert.NotEmpty(t, photo.BlurHash)
	assert.Equal(t, "Client-ID key", auth.Load())
	assert.Equal(t, "Navagio beach Greece", query.Load())
}

func TestSearchPhoto_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	photo, err := NewClient(Options{AccessKey: "key", BaseURL: server.URL}).SearchPhoto(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, photo)
}

func TestSearchPhoto_Errors(t *testing.T) {
	_, err := NewClient(Options{}).SearchPhoto(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)

	status := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()
	client := NewClient(Options{AccessKey: "key", BaseURL: server.URL})

	status.Store(http.StatusForbidden)
	_, err = client.SearchPhoto(context.Background(), "x")
	assert.ErrorIs(t, err, ErrForbidden)

	status.Store(http.StatusInternalServerError)
	_, err = client.SearchPhoto(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSearchPhoto_Paced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewClient(Options{AccessKey: "key", BaseURL: server.URL, Interval: 100 * time.Millisecond})
	start := time.Now()
	for range 3 {
		_, err := client.SearchPhoto(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestQueriesFor(t *testing.T) {
	assert.Equal(t, []string{
		"Navagio beach Zakynthos Greece",
		"Navagio beach Greece",
		"Navagio beach",
	}, QueriesFor("Navagio", "Zakynthos", "Greece"))

	assert.Equal(t, []string{"Navagio beach Greece", "Navagio beach"}, QueriesFor("Navagio", "", "Greece"))
}
