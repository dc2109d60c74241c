package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"

	"github.com/beachatlas/beachatlas-server/internal/cache"
	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
	"github.com/beachatlas/beachatlas-server/internal/search"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// SimilarBeachLimit caps the similar beaches shown on a detail page.
const SimilarBeachLimit = 4

// TextSearcher runs full-text queries over the catalog.
type TextSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]search.Hit, error)
}

// CatalogService serves list, detail, filter option and search queries.
type CatalogService struct {
	catalog  store.Catalog
	filters  *FilterResolver
	hydrator *Hydrator
	searcher TextSearcher
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service. searcher and views may be nil.
func NewCatalogService(catalog store.Catalog, filters *FilterResolver, hydrator *Hydrator, searcher TextSearcher, views *cache.Cache, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		filters:  filters,
		hydrator: hydrator,
		searcher: searcher,
		cache:    views,
		logger:   logger,
	}
}

// ListBeaches returns one page of beaches matching req, newest first.
func (s *CatalogService) ListBeaches(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	if req.Limit == 0 {
		req.Limit = domain.DefaultPageLimit
	}
	if err := validatePageRequest(req); err != nil {
		return nil, err
	}

	key := cache.Key(cache.KindPage, req.SessionID, pageKey(req))
	return cache.GetOrLoad(s.cache, cache.KindPage, key, func() (*domain.Page, error) {
		return s.loadPage(ctx, req)
	})
}

func (s *CatalogService) loadPage(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	restriction, err := s.filters.Resolve(ctx, req.Criteria)
	if err != nil {
		return nil, err
	}
	if restriction.IsEmpty() {
		metrics.PagesServed.WithLabelValues("short_circuit").Inc()
		return domain.EmptyPage(), nil
	}

	result, err := s.catalog.ListBeachPage(ctx, store.PageQuery{
		Filter:      req.ColumnFilter(),
		Restriction: restriction,
		Cursor:      req.Cursor,
		Limit:       req.Limit,
	})
	if err != nil {
		var storeErr *store.Error
		if errors.Is(err, store.ErrInvalidInput) && errors.As(err, &storeErr) {
			return nil, domainerrors.Validation(storeErr.Message)
		}
		return nil, fmt.Errorf("list beach page: %w", err)
	}

	items, err := s.hydrator.Summaries(ctx, result.Items, req.SessionID)
	if err != nil {
		return nil, err
	}

	page := &domain.Page{Items: items, HasMore: result.HasMore}
	if result.HasMore {
		next := result.NextCursor
		page.NextCursor = &next
	}

	outcome := "rows"
	if len(items) == 0 {
		outcome = "empty"
	}
	metrics.PagesServed.WithLabelValues(outcome).Inc()
	return page, nil
}

// GetBeachDetail returns the beach with the given slug and up to four
// similar beaches from the same country. An unknown slug yields a view with
// a nil Beach and no similar beaches, not an error.
func (s *CatalogService) GetBeachDetail(ctx context.Context, slug, sessionID string) (*domain.DetailView, error) {
	key := cache.Key(cache.KindDetail, sessionID, slug)
	return cache.GetOrLoad(s.cache, cache.KindDetail, key, func() (*domain.DetailView, error) {
		return s.loadDetail(ctx, slug, sessionID)
	})
}

func (s *CatalogService) loadDetail(ctx context.Context, slug, sessionID string) (*domain.DetailView, error) {
	beach, err := s.catalog.GetBeachBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.DetailView{Similar: []domain.BeachSummary{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get beach by slug: %w", err)
	}

	detail, err := s.hydrator.Detail(ctx, *beach, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.catalog.ListSimilarBeaches(ctx, beach.Country, beach.ID, SimilarBeachLimit)
	if err != nil {
		return nil, fmt.Errorf("list similar beaches: %w", err)
	}
	// Similar beaches never carry favorite state.
	similar, err := s.hydrator.Summaries(ctx, rows, "")
	if err != nil {
		return nil, err
	}

	return &domain.DetailView{Beach: detail, Similar: similar}, nil
}

// ListFilterOptions returns the distinct countries, vibes and activities,
// each sorted.
func (s *CatalogService) ListFilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	countries, err := s.catalog.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	vibes, err := s.catalog.ListVibeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vibes: %w", err)
	}
	activities, err := s.catalog.ListActivityNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return &domain.FilterOptions{
		Countries:  nonNil(countries),
		Vibes:      nonNil(vibes),
		Activities: nonNil(activities),
	}, nil
}

// SearchBeaches runs a full-text query and returns hydrated summaries in
// relevance order.
func (s *CatalogService) SearchBeaches(ctx context.Context, text string, limit int, sessionID string) ([]domain.BeachSummary, error) {
	if s.searcher == nil {
		return nil, domainerrors.Unavailable("search is not available")
	}
	if limit == 0 {
		limit = search.DefaultSearchLimit
	}
	if limit < 1 || limit > domain.MaxPageLimit {
		return nil, domainerrors.Validationf("limit must be between 1 and %d", domain.MaxPageLimit)
	}

	hits, err := s.searcher.Search(ctx, text, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "search failed")
	}
	if len(hits) == 0 {
		return []domain.BeachSummary{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	rows, err := s.catalog.GetBeachesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}
	return s.hydrator.Summaries(ctx, rows, sessionID)
}

func validatePageRequest(req domain.PageRequest) error {
	if req.Limit < 1 || req.Limit > domain.MaxPageLimit {
		return domainerrors.Validationf("limit must be between 1 and %d", domain.MaxPageLimit)
	}
	if req.CrowdLevel != "" && !req.CrowdLevel.Valid() {
		return domainerrors.Validationf("unknown crowd level %q", req.CrowdLevel)
	}
	if req.Accessibility != "" && !req.Accessibility.Valid() {
		return domainerrors.Validationf("unknown accessibility %q", req.Accessibility)
	}
	if n := req.Near; n != nil {
		if math.Abs(n.Lat) > 90 || math.Abs(n.Lon) > 180 {
			return domainerrors.Validation("near coordinates are out of range")
		}
		if n.RadiusKm <= 0 {
			return domainerrors.Validation("radius must be positive")
		}
	}
	return nil
}

// pageKey is a canonical encoding of everything that selects a page.
func pageKey(req domain.PageRequest) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("country", req.Country)
	set("vibe", req.Vibe)
	set("activity", req.Activity)
	set("crowd", string(req.CrowdLevel))
	set("access", string(req.Accessibility))
	set("cursor", req.Cursor)
	if req.FavoritesOnly {
		v.Set("favorites", "1")
	}
	if n := req.Near; n != nil {
		v.Set("lat", strconv.FormatFloat(n.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(n.Lon, 'f', -1, 64))
		v.Set("km", strconv.FormatFloat(n.RadiusKm, 'f', -1, 64))
	}
	v.Set("limit", strconv.Itoa(req.Limit))
	return v.Encode()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
