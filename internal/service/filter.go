package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// NearFinder resolves a geographic radius to the ids of the beaches inside it.
type NearFinder interface {
	Near(ctx context.Context, lat, lon, radiusKm float64) ([]string, error)
}

// FilterResolver turns list criteria into an id restriction. Direct column
// predicates (country, crowd level, accessibility) are not resolved here;
// they travel with the page query.
type FilterResolver struct {
	catalog store.Catalog
	near    NearFinder
	logger  *slog.Logger
}

// NewFilterResolver creates a resolver. near may be nil, in which case
// proximity criteria are rejected as unavailable.
func NewFilterResolver(catalog store.Catalog, near NearFinder, logger *slog.Logger) *FilterResolver {
	return &FilterResolver{catalog: catalog, near: near, logger: logger}
}

// Resolve narrows the catalog to the beaches admitted by the vibe, activity,
// favorites and proximity criteria. Each criterion intersects the running
// restriction; as soon as it becomes empty no further lookups run.
func (r *FilterResolver) Resolve(ctx context.Context, c domain.Criteria) (domain.Restriction, error) {
	if c.FavoritesOnly && c.SessionID == "" {
		return domain.EmptyRestriction(), nil
	}

	restriction := domain.Unrestricted()

	if c.Vibe != "" {
		ids, err := r.catalog.BeachIDsByVibe(ctx, c.Vibe)
		if err != nil {
			return restriction, fmt.Errorf("resolve vibe: %w", err)
		}
		if restriction = restriction.Intersect(ids); restriction.IsEmpty() {
			return restriction, nil
		}
	}

	if c.Activity != "" {
		ids, err := r.catalog.BeachIDsByActivity(ctx, c.Activity)
		if err != nil {
			return restriction, fmt.Errorf("resolve activity: %w", err)
		}
		if restriction = restriction.Intersect(ids); restriction.IsEmpty() {
			return restriction, nil
		}
	}

	if c.FavoritesOnly {
		ids, err := r.catalog.FavoriteBeachIDs(ctx, c.SessionID)
		if err != nil {
			return restriction, fmt.Errorf("resolve favorites: %w", err)
		}
		if restriction = restriction.Intersect(ids); restriction.IsEmpty() {
			return restriction, nil
		}
	}

	if c.Near != nil {
		if r.near == nil {
			return restriction, domainerrors.Unavailable("proximity search is not available")
		}
		ids, err := r.near.Near(ctx, c.Near.Lat, c.Near.Lon, c.Near.RadiusKm)
		if err != nil {
			return restriction, fmt.Errorf("resolve near: %w", err)
		}
		restriction = restriction.Intersect(ids)
	}

	r.logger.Debug("filters resolved",
		"vibe", c.Vibe,
		"activity", c.Activity,
		"favorites_only", c.FavoritesOnly,
		"near", c.Near != nil,
		"restricted_to", restriction.Len(),
	)
	return restriction, nil
}
