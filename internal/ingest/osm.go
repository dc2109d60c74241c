package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/ingest/overpass"
	"github.com/beachatlas/beachatlas-server/internal/ingest/unsplash"
	"github.com/beachatlas/beachatlas-server/internal/ingest/wikipedia"
)

const (
	defaultBatchSize  = 5
	defaultBatchPause = 500 * time.Millisecond

	// unknownCountry is used for bounding-box fetches when OSM carries no
	// country tag.
	unknownCountry = "Unknown"
)

// BeachSource finds beach features in an area.
type BeachSource interface {
	Beaches(ctx context.Context, a overpass.Area) ([]overpass.Element, error)
}

// SummarySource looks up encyclopedia summaries.
type SummarySource interface {
	Summary(ctx context.Context, title string) (*wikipedia.Summary, error)
}

// PhotoSearcher finds a photo for a free-text query.
type PhotoSearcher interface {
	Enabled() bool
	SearchPhoto(ctx context.Context, query string) (*domain.Photo, error)
}

// OSMOptions tunes the fetcher's batching.
type OSMOptions struct {
	BatchSize int
	Pause     time.Duration
}

// OSMFetcher turns OpenStreetMap beach features into beach file entries,
// enriched with a Wikipedia description and an Unsplash photo.
type OSMFetcher struct {
	source    BeachSource
	summaries SummarySource
	photos    PhotoSearcher
	logger    *slog.Logger
	batchSize int
	pause     time.Duration
	now       func() time.Time
}

// NewOSMFetcher creates a fetcher. summaries and photos may be nil.
func NewOSMFetcher(source BeachSource, summaries SummarySource, photos PhotoSearcher, logger *slog.Logger, opts OSMOptions) *OSMFetcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	} else if opts.Pause == 0 {
		opts.Pause = defaultBatchPause
	}
	return &OSMFetcher{
		source:    source,
		summaries: summaries,
		photos:    photos,
		logger:    logger,
		batchSize: opts.BatchSize,
		pause:     opts.Pause,
		now:       time.Now,
	}
}

// Fetch queries area and converts every named beach. Elements are enriched
// in concurrent batches with a pause between batches.
func (f *OSMFetcher) Fetch(ctx context.Context, area overpass.Area) ([]BeachData, error) {
	elements, err := f.source.Beaches(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("fetch beaches: %w", err)
	}
	f.logger.Info("found beaches", "area", area.Name(), "count", len(elements))

	// Set once Unsplash refuses us; later elements skip the photo lookup.
	var photosBlocked atomic.Bool

	beaches := make([]BeachData, 0, len(elements))
	batches := (len(elements) + f.batchSize - 1) / f.batchSize
	for b := range batches {
		start := b * f.batchSize
		batch := elements[start:min(start+f.batchSize, len(elements))]
		f.logger.Info("processing batch", "batch", b+1, "of", batches)

		results := make([]*BeachData, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Go(func() {
				results[i] = f.convert(ctx, area, &batch[i], &photosBlocked)
			})
		}
		wg.Wait()

		for _, r := range results {
			if r != nil {
				beaches = append(beaches, *r)
			}
		}

		if b < batches-1 && f.pause > 0 {
			select {
			case <-ctx.Done():
				return beaches, ctx.Err()
			case <-time.After(f.pause):
			}
		}
	}
	return beaches, ctx.Err()
}

func (f *OSMFetcher) convert(ctx context.Context, area overpass.Area, el *overpass.Element, photosBlocked *atomic.Bool) *BeachData {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" || strings.Contains(strings.ToLower(name), "unnamed") {
		return nil
	}

	country := area.Country
	if country == "" {
		country = el.Tags["addr:country"]
	}
	if country == "" {
		country = unknownCountry
	}
	region := el.Region()
	lat, lon := el.Position()
	fetchedAt := f.now().UTC()

	d := &BeachData{
		ID:               fmt.Sprintf("osm-%d", el.ID),
		Name:             name,
		Country:          country,
		Region:           region,
		Coordinates:      domain.Coordinates{Lat: lat, Lon: lon},
		Photos:           []PhotoData{},
		ShortDescription: el.Tags["description"],
		Vibes:            []string{},
		Activities:       []string{},
		Facilities:       []string{},
		BestMonths:       []int{},
		Wikipedia:        el.Tags["wikipedia"],
		Website:          el.Tags["website"],
		OSMID:            el.ID,
		FetchedAt:        &fetchedAt,
	}
	if el.Tags["wheelchair"] == "yes" {
		d.Accessibility = string(domain.AccessEasy)
	}
	switch el.Tags["fee"] {
	case "no":
		d.EntryFee = "free"
	case "yes":
		d.EntryFee = "paid"
	}

	if summary := f.summary(ctx, el, name); summary != nil {
		d.Description = summary.Markdown
		if d.ShortDescription == "" {
			d.ShortDescription = wikipedia.FirstSentence(summary.Text)
		}
	}

	if f.photos != nil && f.photos.Enabled() && !photosBlocked.Load() {
		query := unsplash.QueriesFor(name, region, country)[0]
		photo, err := f.photos.SearchPhoto(ctx, query)
		switch {
		case errors.Is(err, unsplash.ErrForbidden):
			if photosBlocked.CompareAndSwap(false, true) {
				f.logger.Warn("unsplash refused requests, continuing without photos", "error", err)
			}
		case err != nil:
			f.logger.Warn("photo lookup failed", "beach", name, "error", err)
		case photo != nil:
			d.Photos = append(d.Photos, photoData(photo))
		}
	}
	return d
}

// summary looks up the tagged Wikipedia article, or one named after the
// beach when its name says "beach".
func (f *OSMFetcher) summary(ctx context.Context, el *overpass.Element, name string) *wikipedia.Summary {
	if f.summaries == nil {
		return nil
	}

	var title string
	switch {
	case el.Tags["wikipedia"] != "":
		title = wikipedia.TitleFromTag(el.Tags["wikipedia"])
	case strings.Contains(strings.ToLower(name), "beach"):
		title = name
	default:
		return nil
	}

	s, err := f.summaries.Summary(ctx, title)
	if err != nil {
		f.logger.Debug("wikipedia lookup failed", "title", title, "error", err)
		return nil
	}
	return s
}

// OutputFileName is the name the fetch result for area is saved under.
func OutputFileName(area overpass.Area) string {
	return "osm-beaches-" + area.Name() + ".json"
}
