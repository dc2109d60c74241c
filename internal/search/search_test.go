package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beachatlas/beachatlas-server/internal/domain"
)

// setupTestIndex creates an on-disk index in a temp dir.
func setupTestIndex(t *testing.T) *BeachIndex {
	t.Helper()
	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func record(id, name, country string, lat, lon float64, vibes ...string) domain.BeachRecord {
	return domain.BeachRecord{
		Beach: domain.Beach{
			ID:          id,
			Slug:        id,
			Name:        name,
			Country:     country,
			Coordinates: domain.Coordinates{Lat: lat, Lon: lon},
		},
		Vibes: vibes,
	}
}

func seed(t *testing.T, index *BeachIndex) {
	t.Helper()
	recs := []domain.BeachRecord{
		record("navagio", "Navagio Beach", "Greece", 37.8591, 20.6247, "Secluded", "Scenic"),
		record("elafonissi", "Elafonissi Beach", "Greece", 35.2713, 23.5404, "Family"),
		record("tulum", "Playa Paraiso", "Mexico", 20.2002, -87.4337, "Romantic"),
	}
	require.NoError(t, index.IndexBeaches(recs))
}

func TestOpen_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()

	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	seed(t, index)
	require.NoError(t, index.Close())

	reopened, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearch(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	hits, err := index.Search(ctx, "navagio", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "navagio", hits[0].ID)
	assert.Equal(t, "navagio", hits[0].Slug)

	hits, err = index.Search(ctx, "mexico", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "tulum", hits[0].ID)

	hits, err = index.Search(ctx, "romantic", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "tulum", hits[0].ID)

	hits, err = index.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_Typo(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	hits, err := index.Search(context.Background(), "navagia", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "navagio", hits[0].ID)
}

func TestNear(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	// Zakynthos town is ~20km from Navagio and ~300km from Elafonissi.
	ids, err := index.Near(ctx, 37.7870, 20.8979, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"navagio"}, ids)

	ids, err = index.Near(ctx, 37.7870, 20.8979, 500)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"navagio", "elafonissi"}, ids)

	ids, err = index.Near(ctx, 0, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteBeach(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	require.NoError(t, index.DeleteBeach(ctx, "navagio"))

	hits, err := index.Search(ctx, "navagio", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

type fakeSource struct {
	recs []domain.BeachRecord
}

func (f fakeSource) ListBeachRecords(context.Context) ([]domain.BeachRecord, error) {
	return f.recs, nil
}

func (f fakeSource) CountBeaches(context.Context) (int, error) {
	return len(f.recs), nil
}

func TestSync(t *testing.T) {
	index, err := Open(Options{})
	require.NoError(t, err)
	defer index.Close()

	src := fakeSource{recs: []domain.BeachRecord{
		record("a", "Alpha Cove", "Greece", 37, 23),
		record("b", "Beta Bay", "Greece", 38, 24),
	}}

	rebuilt, err := index.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	rebuilt, err = index.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, rebuilt)
}
