package ingest

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// SeedStore is the part of the store the seeder writes through.
type SeedStore interface {
	BeachSlugExists(ctx context.Context, slug string) (bool, error)
	CreateBeachRecord(ctx context.Context, rec *domain.BeachRecord) error
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Seeder inserts beaches from a beach file. Seeding is idempotent by slug.
type Seeder struct {
	store  SeedStore
	logger *slog.Logger
	rng    *rand.Rand
}

// NewSeeder creates a seeder. A nil rng uses a randomly seeded source.
func NewSeeder(s SeedStore, logger *slog.Logger, rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{store: s, logger: logger, rng: rng}
}

// Seed inserts every beach whose slug is not yet in the catalog. Each beach
// is written with its children in one transaction; a failing beach is
// logged and counted without stopping the run.
func (s *Seeder) Seed(ctx context.Context, beaches []BeachData) (SeedResult, error) {
	var result SeedResult

	for i := range beaches {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		d := &beaches[i]
		slug := d.Slug()
		log := s.logger.With("slug", slug, "name", d.Name)

		exists, err := s.store.BeachSlugExists(ctx, slug)
		if err != nil {
			log.Error("failed to check beach", "error", err)
			result.Failed++
			continue
		}
		if exists {
			log.Debug("beach already exists, skipping")
			result.Skipped++
			continue
		}

		rec := d.Record()
		rec.Rating = math.Round((4+s.rng.Float64())*10) / 10
		rec.ReviewCount = s.rng.IntN(500) + 50

		err = s.store.CreateBeachRecord(ctx, rec)
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			result.Skipped++
		case err != nil:
			log.Error("failed to insert beach", "error", err)
			result.Failed++
		default:
			log.Info("inserted beach", "country", rec.Country, "photos", len(rec.Photos))
			result.Inserted++
		}
	}

	s.logger.Info("seeding complete",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
