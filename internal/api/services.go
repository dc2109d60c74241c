package api

import (
	"context"

	"github.com/beachatlas/beachatlas-server/internal/service"
)

// HealthChecker reports whether a backing component is reachable.
type HealthChecker interface {
	CountBeaches(ctx context.Context) (int, error)
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Catalog    *service.CatalogService
	Favorite   *service.FavoriteService
	Newsletter *service.NewsletterService
	Sitemap    *service.SitemapService
	Assistant  *service.AssistantService

	Store  HealthChecker   // Database health
	Search DocumentCounter // Search index health (optional)
}
