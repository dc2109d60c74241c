package ingest

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/ingest/overpass"
	"github.com/beachatlas/beachatlas-server/internal/ingest/wikipedia"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
	"github.com/beachatlas/beachatlas-server/internal/store/sqlite"
)

type fakeSource struct {
	elements []overpass.Element
}

func (f fakeSource) Beaches(context.Context, overpass.Area) ([]overpass.Element, error) {
	return f.elements, nil
}

type fakeSummaries map[string]*wikipedia.Summary

func (f fakeSummaries) Summary(_ context.Context, title string) (*wikipedia.Summary, error) {
	return f[title], nil
}

func osmElement(id int64, tags map[string]string) overpass.Element {
	return overpass.Element{Type: "node", ID: id, Lat: 37, Lon: 20, Tags: tags}
}

func TestOSMFetcher_Fetch(t *testing.T) {
	source := fakeSource{elements: []overpass.Element{
		osmElement(1, map[string]string{"name": "Navagio", "wikipedia": "en:Navagio", "wheelchair": "yes",
			"fee": "no", "addr:province": "Zakynthos"}),
		osmElement(2, map[string]string{}),
		osmElement(3, map[string]string{"name": "Unnamed beach"}),
		osmElement(4, map[string]string{"name": "Elafonissi Beach", "fee": "yes", "description": "Pink sand"}),
		osmElement(5, map[string]string{"name": "Simos"}),
		{Type: "way", ID: 6, Center: &overpass.Center{Lat: 36.1, Lon: 22.9}, Tags: map[string]string{"name": "Kedrodasos"}},
	}}
	summaries := fakeSummaries{
		"Navagio":          {Text: "Navagio is a cove. It has a wreck.", Markdown: "**Navagio** is a cove."},
		"Elafonissi Beach": {Text: "Elafonissi is pink.", Markdown: "Elafonissi is pink."},
	}
	photos := &fakePhotos{results: map[string]*domain.Photo{
		"Navagio beach Zakynthos Greece": {URL: "https://img/navagio.jpg", Photographer: "Ana"},
	}}

	fetcher := NewOSMFetcher(source, summaries, photos, testLogger(), OSMOptions{BatchSize: 2, Pause: -1})
	beaches, err := fetcher.Fetch(context.Background(), overpass.Area{Country: "Greece"})
	require.NoError(t, err)
	require.Len(t, beaches, 4)

	navagio := beaches[0]
	assert.Equal(t, "osm-1", navagio.ID)
	assert.Equal(t, "Greece", navagio.Country)
	assert.Equal(t, "Zakynthos", navagio.Region)
	assert.Equal(t, "Easy", navagio.Accessibility)
	assert.Equal(t, "free", navagio.EntryFee)
	assert.Equal(t, "**Navagio** is a cove.", navagio.Description)
	assert.Equal(t, "Navagio is a cove.", navagio.ShortDescription)
	require.Len(t, navagio.Photos, 1)
	assert.Equal(t, "https://img/navagio.jpg", navagio.Photos[0].URL)
	assert.NotNil(t, navagio.FetchedAt)

	elafonissi := beaches[1]
	assert.Equal(t, "paid", elafonissi.EntryFee)
	assert.Equal(t, "Pink sand", elafonissi.ShortDescription)
	assert.Equal(t, "Elafonissi is pink.", elafonissi.Description)
	assert.Empty(t, elafonissi.Photos)

	assert.Equal(t, "Simos", beaches[2].Name)
	assert.Empty(t, beaches[2].Description)

	assert.Equal(t, domain.Coordinates{Lat: 36.1, Lon: 22.9}, beaches[3].Coordinates)

	// The output round-trips into the seeder's input.
	rec := beaches[0].Record()
	assert.Equal(t, domain.AccessEasy, rec.Accessibility)
	assert.Equal(t, "osm-1", rec.Slug)
}

func TestOSMFetcher_BoundingBoxCountry(t *testing.T) {
	source := fakeSource{elements: []overpass.Element{
		osmElement(1, map[string]string{"name": "A", "addr:country": "GR"}),
		osmElement(2, map[string]string{"name": "B"}),
	}}
	fetcher := NewOSMFetcher(source, nil, nil, testLogger(), OSMOptions{Pause: -1})
	beaches, err := fetcher.Fetch(context.Background(), overpass.Area{BBox: &overpass.BBox{MaxLat: 1, MaxLon: 1}})
	require.NoError(t, err)
	require.Len(t, beaches, 2)
	assert.Equal(t, "GR", beaches[0].Country)
	assert.Equal(t, unknownCountry, beaches[1].Country)
}

func TestOSMFetcher_ForbiddenStopsPhotoLookups(t *testing.T) {
	source := fakeSource{elements: []overpass.Element{
		osmElement(1, map[string]string{"name": "A"}),
		osmElement(2, map[string]string{"name": "B"}),
		osmElement(3, map[string]string{"name": "C"}),
	}}
	photos := &fakePhotos{forbidden: map[string]bool{"A beach Greece": true, "B beach Greece": true, "C beach Greece": true}}

	fetcher := NewOSMFetcher(source, nil, photos, testLogger(), OSMOptions{BatchSize: 1, Pause: time.Millisecond})
	beaches, err := fetcher.Fetch(context.Background(), overpass.Area{Country: "Greece"})
	require.NoError(t, err)
	assert.Len(t, beaches, 3)
	assert.Equal(t, []string{"A beach Greece"}, photos.seen())
}

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "osm-beaches-greece.json", OutputFileName(overpass.Area{Country: "Greece"}))
}

func TestBackfiller_Run(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, rec := range []*domain.BeachRecord{
		{Beach: domain.Beach{Slug: "navagio", Name: "Navagio", Country: "Greece", Region: "Zakynthos"}},
		{Beach: domain.Beach{Slug: "balos", Name: "Balos", Country: "Greece"}},
		{Beach: domain.Beach{Slug: "nowhere", Name: "Nowhere", Country: "Greece"}},
		{Beach: domain.Beach{Slug: "unnamed", Name: "Unnamed", Country: "Greece"}},
		{Beach: domain.Beach{Slug: "has-photo", Name: "Has Photo", Country: "Greece"},
			Photos: []domain.Photo{{URL: "https://img/existing.jpg"}}},
	} {
		require.NoError(t, s.CreateBeachRecord(ctx, rec))
	}

	photos := &fakePhotos{results: map[string]*domain.Photo{
		"Navagio beach Zakynthos Greece": {URL: "https://img/navagio.jpg"},
		"Balos beach":                    {URL: "https://img/balos.jpg"},
	}}

	result, err := NewBackfiller(s, photos, testLogger(), 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Updated: 2, Failed: 1}, result)

	for _, q := range photos.seen() {
		assert.NotContains(t, q, "Unnamed")
		assert.NotContains(t, q, "Has Photo")
	}

	balos, err := s.GetBeachBySlug(ctx, "balos")
	require.NoError(t, err)
	primary, err := s.PrimaryPhoto(ctx, balos.ID)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "https://img/balos.jpg", primary.URL)

	remaining, err := s.ListBeachesWithoutPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestBackfiller_StopsOnForbidden(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, slug := range []string{"a", "b"} {
		require.NoError(t, s.CreateBeachRecord(ctx, &domain.BeachRecord{
			Beach: domain.Beach{Slug: slug, Name: slug, Country: "Greece"},
		}))
	}
	photos := &fakePhotos{forbidden: map[string]bool{"a beach Greece": true, "b beach Greece": true}}

	result, err := NewBackfiller(s, photos, testLogger(), 0).Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Stopped)
	assert.Zero(t, result.Updated)
	assert.Len(t, photos.seen(), 1)
}

func TestBackfiller_Disabled(t *testing.T) {
	_, err := NewBackfiller(newTestStore(t), &fakePhotos{disabled: true}, testLogger(), 0).Run(context.Background())
	assert.Error(t, err)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newAssetSyncer(t *testing.T) (*AssetSyncer, *sqlite.Store, *images.Storage, string) {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	for _, rec := range []*domain.BeachRecord{
		{Beach: domain.Beach{Slug: "navagio", Name: "Navagio Beach", Country: "Greece"}},
		{Beach: domain.Beach{Slug: "playa-norte-isla", Name: "Playa Norte", Country: "Mexico"}},
	} {
		require.NoError(t, s.CreateBeachRecord(ctx, rec))
	}

	storage, err := images.NewStorage(t.TempDir(), "https://beachatlas.example/assets")
	require.NoError(t, err)
	queue := t.TempDir()
	syncer := NewAssetSyncer(s, images.NewProcessor(storage, testLogger()), queue, testLogger())
	return syncer, s, storage, queue
}

func TestAssetSyncer_Sync(t *testing.T) {
	syncer, s, storage, queue := newAssetSyncer(t)
	ctx := context.Background()

	writePNG(t, filepath.Join(queue, "navagio", "cove.png"))
	writePNG(t, filepath.Join(queue, "playa_norte", "sunset.png"))
	require.NoError(t, os.WriteFile(filepath.Join(queue, "playa_norte", "clip.mp4"), []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(queue, "playa_norte", ".DS_Store"), []byte("x"), 0o644))
	writePNG(t, filepath.Join(queue, "atlantis", "lost.png"))
	writePNG(t, filepath.Join(queue, ".hidden", "h.png"))

	result, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Folders: 3, Unmatched: 1, Uploaded: 2, Skipped: 1}, result)

	assert.True(t, storage.Exists(images.BeachKey("navagio", "cove.png")))
	assert.True(t, storage.Exists(images.BeachKey("playa-norte-isla", "sunset.png")))

	// Fully processed folders are moved aside and removed.
	assert.FileExists(t, filepath.Join(queue, ProcessedDir, "navagio", "cove.png"))
	assert.NoDirExists(t, filepath.Join(queue, "navagio"))
	// Leftover files keep their folder in place.
	assert.FileExists(t, filepath.Join(queue, "playa_norte", "clip.mp4"))
	assert.FileExists(t, filepath.Join(queue, "atlantis", "lost.png"))

	beaches, err := s.ListAllBeaches(ctx)
	require.NoError(t, err)
	navagio := MatchBeach("navagio", beaches)
	require.NotNil(t, navagio)

	photos, err := s.ListPhotos(ctx, navagio.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, ManualUploadPhotographer, photos[0].Photographer)
	assert.Equal(t, photos[0].URL, photos[0].Thumbnail)
	assert.Equal(t, "https://beachatlas.example/assets/beaches/navagio/cove.png", photos[0].URL)
	assert.NotEmpty(t, photos[0].BlurHash)

	// Nothing left to do on a second pass.
	result, err = syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Uploaded)
}

func TestAssetSyncer_MissingQueue(t *testing.T) {
	syncer, _, _, queue := newAssetSyncer(t)
	syncer.queueDir = filepath.Join(queue, "missing")

	result, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Folders)
}

func TestAssetSyncer_Watch(t *testing.T) {
	syncer, _, storage, queue := newAssetSyncer(t)
	syncer.quiet = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- syncer.Watch(ctx) }()

	// Give the watcher time to register the queue.
	time.Sleep(200 * time.Millisecond)
	writePNG(t, filepath.Join(queue, "navagio", "late.png"))

	key := images.BeachKey("navagio", "late.png")
	assert.Eventually(t, func() bool { return storage.Exists(key) }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestMatchBeach(t *testing.T) {
	beaches := []domain.Beach{
		{Slug: "navagio", Name: "Navagio Beach"},
		{Slug: "balos-lagoon", Name: "Balos"},
	}
	assert.Equal(t, "navagio", MatchBeach("navagio", beaches).Slug)
	assert.Equal(t, "navagio", MatchBeach("Navagio_Beach", beaches).Slug)
	assert.Equal(t, "balos-lagoon", MatchBeach("balos-lagoon", beaches).Slug)
	assert.Equal(t, "balos-lagoon", MatchBeach("balos", beaches).Slug)
	assert.Nil(t, MatchBeach("atlantis", beaches))
}
