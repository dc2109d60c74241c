// Package store defines the persistence contracts for the beach catalog.
package store

import (
	"context"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
)

// Catalog is the read side used by filter resolution, pagination and
// hydration. Each method is one independent query against the pool.
type Catalog interface {
	ListBeachPage(ctx context.Context, q PageQuery) (*PaginatedResult[domain.Beach], error)
	GetBeach(ctx context.Context, id string) (*domain.Beach, error)
	GetBeachBySlug(ctx context.Context, slug string) (*domain.Beach, error)
	ListSimilarBeaches(ctx context.Context, country, excludeID string, limit int) ([]domain.Beach, error)
	GetBeachesByIDs(ctx context.Context, ids []string) ([]domain.Beach, error)

	BeachIDsByVibe(ctx context.Context, vibe string) ([]string, error)
	BeachIDsByActivity(ctx context.Context, activity string) ([]string, error)
	FavoriteBeachIDs(ctx context.Context, sessionID string) ([]string, error)

	PrimaryPhoto(ctx context.Context, beachID string) (*domain.Photo, error)
	ListPhotos(ctx context.Context, beachID string) ([]domain.Photo, error)
	ListVibes(ctx context.Context, beachID string) ([]string, error)
	ListActivities(ctx context.Context, beachID string) ([]string, error)
	ListFacilities(ctx context.Context, beachID string) ([]string, error)
	ListBestMonths(ctx context.Context, beachID string) ([]int, error)
	IsFavorite(ctx context.Context, sessionID, beachID string) (bool, error)

	ListCountries(ctx context.Context) ([]string, error)
	ListVibeNames(ctx context.Context) ([]string, error)
	ListActivityNames(ctx context.Context) ([]string, error)
}

// Favorites is the write side of the favorite toggle.
type Favorites interface {
	GetFavorite(ctx context.Context, sessionID, beachID string) (*domain.Favorite, error)
	AddFavorite(ctx context.Context, fav *domain.Favorite) error
	RemoveFavorite(ctx context.Context, sessionID, beachID string) error
}

// Subscribers persists newsletter signups.
type Subscribers interface {
	GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error
}

// SitemapEntry is a beach slug with its last modification time.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// Ingest is the write contract used by the catalog producers.
type Ingest interface {
	CreateBeachRecord(ctx context.Context, rec *domain.BeachRecord) error
	BeachSlugExists(ctx context.Context, slug string) (bool, error)
	ListAllBeaches(ctx context.Context) ([]domain.Beach, error)
	ListBeachesWithoutPhotos(ctx context.Context) ([]domain.Beach, error)
	AddPhoto(ctx context.Context, photo *domain.Photo) error
	DeleteBeachesNameContaining(ctx context.Context, fragment string) ([]string, error)
}

// Store is the full persistence surface.
type Store interface {
	Catalog
	Favorites
	Subscribers
	Ingest

	ListBeachRecords(ctx context.Context) ([]domain.BeachRecord, error)
	ListSitemapEntries(ctx context.Context) ([]SitemapEntry, error)
	CountBeaches(ctx context.Context) (int, error)
	SetSearchIndexer(indexer SearchIndexer)
	Close() error
}

// SearchIndexer keeps the search index in step with catalog writes without
// the store depending on the search implementation.
type SearchIndexer interface {
	IndexBeach(ctx context.Context, rec *domain.BeachRecord) error
	DeleteBeach(ctx context.Context, beachID string) error
}

// NoopSearchIndexer discards index updates.
type NoopSearchIndexer struct{}

// IndexBeach is a no-op.
func (NoopSearchIndexer) IndexBeach(context.Context, *domain.BeachRecord) error { return nil }

// DeleteBeach is a no-op.
func (NoopSearchIndexer) DeleteBeach(context.Context, string) error { return nil }
