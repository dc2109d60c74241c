package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/service"
)

func (s *Server) registerBeachRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBeaches",
		Method:      http.MethodGet,
		Path:        "/api/v1/beaches",
		Summary:     "List beaches",
		Description: "Returns one page of beaches matching the filters, newest first",
		Tags:        []string{"Beaches"},
	}, s.handleListBeaches)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBeach",
		Method:      http.MethodGet,
		Path:        "/api/v1/beaches/{slug}",
		Summary:     "Get beach",
		Description: "Returns a beach with photos, attributes and similar beaches",
		Tags:        []string{"Beaches"},
	}, s.handleGetBeach)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/beaches/{id}/favorite",
		Summary:     "Toggle favorite",
		Description: "Adds or removes a beach from the session's favorites, starting a session if needed",
		Tags:        []string{"Beaches"},
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFilterOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/filters",
		Summary:     "List filter options",
		Description: "Returns the distinct countries, vibes and activities in the catalog",
		Tags:        []string{"Beaches"},
	}, s.handleListFilterOptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBeaches",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search beaches",
		Description: "Full-text search over beach names, places and descriptions",
		Tags:        []string{"Beaches"},
	}, s.handleSearchBeaches)
}

// ListBeachesInput contains parameters for listing beaches.
type ListBeachesInput struct {
	SessionCookieInput
	Country       string `query:"country" doc:"Exact country name"`
	Vibe          string `query:"vibe" doc:"Vibe name"`
	Activity      string `query:"activity" doc:"Activity name"`
	Crowd         string `query:"crowd" doc:"Crowd level: Low, Moderate or High"`
	Accessibility string `query:"accessibility" doc:"Accessibility: Easy, Moderate or Difficult"`
	Favorites     bool   `query:"favorites" doc:"Only the session's favorites"`
	NearLat       string `query:"near_lat" doc:"Latitude of the proximity center"`
	NearLon       string `query:"near_lon" doc:"Longitude of the proximity center"`
	RadiusKm      string `query:"radius_km" doc:"Proximity radius in kilometres"`
	Limit         int    `query:"limit" doc:"Page size (default 12, max 50)"`
	Cursor        string `query:"cursor" doc:"Cursor from a previous page"`
}

// ListBeachesOutput wraps a page of beaches for Huma.
type ListBeachesOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         *domain.Page
}

func (s *Server) handleListBeaches(ctx context.Context, input *ListBeachesInput) (*ListBeachesOutput, error) {
	near, err := parseNear(input.NearLat, input.NearLon, input.RadiusKm)
	if err != nil {
		return nil, s.apiError(err)
	}

	page, err := s.services.Catalog.ListBeaches(ctx, domain.PageRequest{
		Criteria: domain.Criteria{
			Country:       input.Country,
			Vibe:          input.Vibe,
			Activity:      input.Activity,
			CrowdLevel:    domain.CrowdLevel(input.Crowd),
			Accessibility: domain.Accessibility(input.Accessibility),
			FavoritesOnly: input.Favorites,
			SessionID:     input.session(),
			Near:          near,
		},
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, s.apiError(err)
	}
	return &ListBeachesOutput{CacheControl: CachePrivate, Body: page}, nil
}

// parseNear accepts the proximity filter only as a complete triple.
func parseNear(lat, lon, radius string) (*domain.NearQuery, error) {
	set := 0
	for _, v := range []string{lat, lon, radius} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case 3:
	default:
		return nil, domainerrors.Validation("near_lat, near_lon and radius_km must be given together")
	}

	var q domain.NearQuery
	for _, p := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"near_lat", lat, &q.Lat},
		{"near_lon", lon, &q.Lon},
		{"radius_km", radius, &q.RadiusKm},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(p.raw), 64)
		if err != nil {
			return nil, domainerrors.Validationf("%s must be a number", p.name)
		}
		*p.dst = v
	}
	return &q, nil
}

// GetBeachInput contains parameters for fetching a beach.
type GetBeachInput struct {
	SessionCookieInput
	Slug string `path:"slug" doc:"Beach slug"`
}

// GetBeachOutput wraps the detail view for Huma.
type GetBeachOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         *domain.DetailView
}

func (s *Server) handleGetBeach(ctx context.Context, input *GetBeachInput) (*GetBeachOutput, error) {
	view, err := s.services.Catalog.GetBeachDetail(ctx, input.Slug, input.session())
	if err != nil {
		return nil, s.apiError(err)
	}
	if view.Beach == nil {
		return nil, s.apiError(domainerrors.NotFoundf("beach %q not found", input.Slug))
	}
	return &GetBeachOutput{CacheControl: CachePrivate, Body: view}, nil
}

// ToggleFavoriteInput contains parameters for toggling a favorite.
type ToggleFavoriteInput struct {
	SessionCookieInput
	ID string `path:"id" doc:"Beach ID"`
}

// ToggleFavoriteOutput wraps the toggle result for Huma.
type ToggleFavoriteOutput struct {
	SetCookie string `header:"Set-Cookie"`
	Body      *domain.ToggleResult
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *ToggleFavoriteInput) (*ToggleFavoriteOutput, error) {
	token, created, err := service.EnsureSession(input.SessionID)
	if err != nil {
		return nil, s.apiError(err)
	}

	result, err := s.services.Favorite.Toggle(ctx, input.ID, token)
	if err != nil {
		return nil, s.apiError(err)
	}

	out := &ToggleFavoriteOutput{Body: result}
	if created {
		out.SetCookie = s.sessionCookie(token)
	}
	return out, nil
}

// FilterOptionsOutput wraps the filter options for Huma.
type FilterOptionsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         *domain.FilterOptions
}

func (s *Server) handleListFilterOptions(ctx context.Context, _ *struct{}) (*FilterOptionsOutput, error) {
	options, err := s.services.Catalog.ListFilterOptions(ctx)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &FilterOptionsOutput{CacheControl: CacheOneHour, Body: options}, nil
}

// SearchBeachesInput contains parameters for full-text search.
type SearchBeachesInput struct {
	SessionCookieInput
	Query string `query:"q" doc:"Search text"`
	Limit int    `query:"limit" doc:"Maximum results (default 20, max 50)"`
}

// SearchResponse contains search results in API responses.
type SearchResponse struct {
	Query   string                `json:"query" doc:"The search text"`
	Beaches []domain.BeachSummary `json:"beaches" doc:"Matching beaches in relevance order"`
}

// SearchBeachesOutput wraps search results for Huma.
type SearchBeachesOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearchBeaches(ctx context.Context, input *SearchBeachesInput) (*SearchBeachesOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, s.apiError(domainerrors.Validation("q is required"))
	}
	beaches, err := s.services.Catalog.SearchBeaches(ctx, query, input.Limit, input.session())
	if err != nil {
		return nil, s.apiError(err)
	}
	return &SearchBeachesOutput{Body: SearchResponse{Query: query, Beaches: beaches}}, nil
}
