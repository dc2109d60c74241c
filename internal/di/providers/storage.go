package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/cache"
	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
)

// ProvideAssetStorage provides the photo asset store served under /assets.
func ProvideAssetStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Assets.Path, cfg.Assets.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("asset storage: %w", err)
	}

	log.Info("Asset storage initialized", "path", cfg.Assets.Path, "public_url", cfg.Assets.PublicURL)
	return storage, nil
}

// ProvideImageProcessor provides the photo importer.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewProcessor(storage, log.Component("images")), nil
}

// ViewCacheHandle wraps the page-view cache. Cache is nil when caching is
// disabled; services treat a nil cache as always-miss.
type ViewCacheHandle struct {
	Cache *cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *ViewCacheHandle) Shutdown() error {
	if h.Cache == nil {
		return nil
	}
	return h.Cache.Close()
}

// ProvideViewCache provides the Badger-backed page-view cache.
func ProvideViewCache(i do.Injector) (*ViewCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Enabled {
		log.Info("Page cache disabled by configuration")
		return &ViewCacheHandle{}, nil
	}

	views, err := cache.Open(cache.Options{
		Path:     cfg.Cache.Path,
		InMemory: cfg.Cache.InMemory,
		TTL:      cfg.Cache.TTL,
		Logger:   log.Component("cache"),
	})
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	log.Info("Page cache initialized", "path", cfg.Cache.Path, "ttl", cfg.Cache.TTL)
	return &ViewCacheHandle{Cache: views}, nil
}
