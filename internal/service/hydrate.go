package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// Hydrator attaches child collections and per-session state to beach rows.
// Every lookup is an independent store query; rows hydrate concurrently and
// the caller waits for all of them.
type Hydrator struct {
	catalog store.Catalog
	logger  *slog.Logger
}

// NewHydrator creates a hydrator.
func NewHydrator(catalog store.Catalog, logger *slog.Logger) *Hydrator {
	return &Hydrator{catalog: catalog, logger: logger}
}

// Summaries hydrates rows into list-view summaries, preserving order.
// Without a session every IsFavorite is false.
func (h *Hydrator) Summaries(ctx context.Context, rows []domain.Beach, sessionID string) ([]domain.BeachSummary, error) {
	defer func(start time.Time) { metrics.HydrationDuration.Observe(time.Since(start).Seconds()) }(time.Now())

	out := make([]domain.BeachSummary, len(rows))
	errs := make([]error, len(rows))

	var wg sync.WaitGroup
	for i := range rows {
		wg.Go(func() {
			out[i], errs[i] = h.summary(ctx, rows[i], sessionID)
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Hydrator) summary(ctx context.Context, b domain.Beach, sessionID string) (domain.BeachSummary, error) {
	var (
		photo                      *domain.Photo
		vibes                      []string
		favorite                   bool
		photoErr, vibesErr, favErr error
		wg                         sync.WaitGroup
	)

	wg.Go(func() { photo, photoErr = h.catalog.PrimaryPhoto(ctx, b.ID) })
	wg.Go(func() { vibes, vibesErr = h.catalog.ListVibes(ctx, b.ID) })
	if sessionID != "" {
		wg.Go(func() { favorite, favErr = h.catalog.IsFavorite(ctx, sessionID, b.ID) })
	}
	wg.Wait()

	if err := errors.Join(photoErr, vibesErr, favErr); err != nil {
		return domain.BeachSummary{}, fmt.Errorf("hydrate beach %s: %w", b.ID, err)
	}
	if vibes == nil {
		vibes = []string{}
	}
	return domain.BeachSummary{
		Beach:        b,
		PrimaryPhoto: photo,
		Vibes:        vibes,
		IsFavorite:   favorite,
	}, nil
}

// Detail hydrates a beach with every child collection.
func (h *Hydrator) Detail(ctx context.Context, b domain.Beach, sessionID string) (*domain.BeachDetail, error) {
	defer func(start time.Time) { metrics.HydrationDuration.Observe(time.Since(start).Seconds()) }(time.Now())

	d := &domain.BeachDetail{Beach: b}
	var (
		errs [6]error
		wg   sync.WaitGroup
	)

	wg.Go(func() { d.Photos, errs[0] = h.catalog.ListPhotos(ctx, b.ID) })
	wg.Go(func() { d.Vibes, errs[1] = h.catalog.ListVibes(ctx, b.ID) })
	wg.Go(func() { d.Activities, errs[2] = h.catalog.ListActivities(ctx, b.ID) })
	wg.Go(func() { d.Facilities, errs[3] = h.catalog.ListFacilities(ctx, b.ID) })
	wg.Go(func() { d.BestMonths, errs[4] = h.catalog.ListBestMonths(ctx, b.ID) })
	if sessionID != "" {
		wg.Go(func() { d.IsFavorite, errs[5] = h.catalog.IsFavorite(ctx, sessionID, b.ID) })
	}
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("hydrate beach detail %s: %w", b.ID, err)
	}

	if d.Photos == nil {
		d.Photos = []domain.Photo{}
	}
	if d.Vibes == nil {
		d.Vibes = []string{}
	}
	if d.Activities == nil {
		d.Activities = []string{}
	}
	if d.Facilities == nil {
		d.Facilities = []string{}
	}
	if d.BestMonths == nil {
		d.BestMonths = []int{}
	}
	return d, nil
}
