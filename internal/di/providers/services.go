package providers

import (
	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/ai"
	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/mailer"
	"github.com/beachatlas/beachatlas-server/internal/service"
	"github.com/beachatlas/beachatlas-server/internal/weather"
)

// ProvideCatalogService provides the list, detail, filter and search service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	cacheHandle := do.MustInvoke[*ViewCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svcLog := log.Component("catalog")
	filters := service.NewFilterResolver(storeHandle.Store, indexHandle.BeachIndex, svcLog)
	hydrator := service.NewHydrator(storeHandle.Store, svcLog)
	return service.NewCatalogService(storeHandle.Store, filters, hydrator, indexHandle.BeachIndex, cacheHandle.Cache, svcLog), nil
}

// ProvideFavoriteService provides the favorite toggle service.
func ProvideFavoriteService(i do.Injector) (*service.FavoriteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*ViewCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewFavoriteService(storeHandle.Store, cacheHandle.Cache, log.Component("favorites")), nil
}

// ProvideNewsletterService provides the newsletter signup service.
func ProvideNewsletterService(i do.Injector) (*service.NewsletterService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mail := do.MustInvoke[*mailer.Client](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewNewsletterService(storeHandle.Store, mail, log.Component("newsletter")), nil
}

// ProvideSitemapService provides the sitemap renderer.
func ProvideSitemapService(i do.Injector) (*service.SitemapService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	return service.NewSitemapService(storeHandle.Store, cfg.Server.BaseURL), nil
}

// ProvideAssistantService provides the weather, vibe summary and chat service.
func ProvideAssistantService(i do.Injector) (*service.AssistantService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	weatherClient := do.MustInvoke[*weather.Client](i)
	aiClient := do.MustInvoke[*ai.Client](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewAssistantService(storeHandle.Store, weatherClient, aiClient, log.Component("assistant")), nil
}
