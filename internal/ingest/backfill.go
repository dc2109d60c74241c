package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/ingest/unsplash"
)

// DefaultBeachInterval is the spacing between beaches during a backfill.
const DefaultBeachInterval = 2 * time.Second

// BackfillStore is the part of the store the photo backfill uses.
type BackfillStore interface {
	ListBeachesWithoutPhotos(ctx context.Context) ([]domain.Beach, error)
	AddPhoto(ctx context.Context, photo *domain.Photo) error
}

// BackfillResult counts what a backfill run did.
type BackfillResult struct {
	Updated int
	Failed  int
	// Stopped is set when the photo provider refused further requests.
	Stopped bool
}

// Backfiller adds a photo to every beach that has none.
type Backfiller struct {
	store   BackfillStore
	photos  PhotoSearcher
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewBackfiller creates a backfiller that starts at most one beach per
// interval. A zero interval disables pacing.
func NewBackfiller(s BackfillStore, photos PhotoSearcher, logger *slog.Logger, interval time.Duration) *Backfiller {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Backfiller{
		store:   s,
		photos:  photos,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run backfills photos. Beaches are tried with increasingly general
// queries; a forbidden response ends the run early.
func (b *Backfiller) Run(ctx context.Context) (BackfillResult, error) {
	var result BackfillResult
	if !b.photos.Enabled() {
		return result, unsplash.ErrDisabled
	}

	beaches, err := b.store.ListBeachesWithoutPhotos(ctx)
	if err != nil {
		return result, fmt.Errorf("list beaches without photos: %w", err)
	}
	b.logger.Info("backfilling photos", "beaches", len(beaches))

	for i := range beaches {
		beach := &beaches[i]
		if strings.Contains(strings.ToLower(beach.Name), "unnamed") {
			continue
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return result, err
		}

		photo, err := b.findPhoto(ctx, beach)
		if errors.Is(err, unsplash.ErrForbidden) {
			b.logger.Warn("photo provider refused requests, stopping", "error", err)
			result.Stopped = true
			break
		}
		if err != nil && ctx.Err() != nil {
			return result, ctx.Err()
		}
		if photo == nil {
			b.logger.Warn("no photo found", "slug", beach.Slug, "error", err)
			result.Failed++
			continue
		}

		photo.BeachID = beach.ID
		if err := b.store.AddPhoto(ctx, photo); err != nil {
			b.logger.Error("failed to save photo", "slug", beach.Slug, "error", err)
			result.Failed++
			continue
		}
		b.logger.Info("added photo", "slug", beach.Slug, "photographer", photo.Photographer)
		result.Updated++
	}

	b.logger.Info("backfill complete",
		"updated", result.Updated,
		"failed", result.Failed,
		"stopped", result.Stopped,
	)
	return result, nil
}

// findPhoto tries each query for beach until one yields a photo. The last
// lookup error is returned when none does.
func (b *Backfiller) findPhoto(ctx context.Context, beach *domain.Beach) (*domain.Photo, error) {
	var lastErr error
	for _, query := range unsplash.QueriesFor(beach.Name, beach.Region, beach.Country) {
		photo, err := b.photos.SearchPhoto(ctx, query)
		if errors.Is(err, unsplash.ErrForbidden) {
			return nil, err
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if photo != nil {
			return photo, nil
		}
	}
	return nil, lastErr
}
