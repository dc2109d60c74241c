// Package di provides dependency injection configuration for the BeachAtlas server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/di/providers"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/mailer"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
	"github.com/beachatlas/beachatlas-server/internal/service"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideViewCache)
	do.Provide(injector, providers.ProvideAssetStorage)
	do.Provide(injector, providers.ProvideImageProcessor)

	// External collaborators
	do.Provide(injector, providers.ProvideWeatherClient)
	do.Provide(injector, providers.ProvideAIClient)
	do.Provide(injector, providers.ProvideMailer)
	do.Provide(injector, providers.ProvideUnsplashClient)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideFavoriteService)
	do.Provide(injector, providers.ProvideNewsletterService)
	do.Provide(injector, providers.ProvideSitemapService)
	do.Provide(injector, providers.ProvideAssistantService)

	// Workers
	do.Provide(injector, providers.ProvideAssetWatcher)
	do.Provide(injector, providers.ProvideCacheGCJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.ViewCacheHandle](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*weather.Client](injector)
	_ = do.MustInvoke[*ai.Client](injector)
	_ = do.MustInvoke[*mailer.Client](injector)

	// Business services
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.FavoriteService](injector)
	_ = do.MustInvoke[*service.NewsletterService](injector)
	_ = do.MustInvoke[*service.SitemapService](injector)
	_ = do.MustInvoke[*service.AssistantService](injector)

	// Workers
	_ = do.MustInvoke[*providers.AssetWatcherHandle](injector)
	_ = do.MustInvoke[*providers.CacheGCJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Catch the index up with beaches ingested while the server was down.
	providers.SyncSearchIndex(injector)

	return nil
}
