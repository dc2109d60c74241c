package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/ingest"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
)

// cacheGCInterval is how often the on-disk page cache reclaims space.
const cacheGCInterval = 10 * time.Minute

// AssetWatcherHandle runs the upload queue watcher.
type AssetWatcherHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *AssetWatcherHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideAssetWatcher imports photos dropped into the upload queue while
// the server runs.
func ProvideAssetWatcher(i do.Injector) (*AssetWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)

	syncer := ingest.NewAssetSyncer(storeHandle.Store, processor, cfg.Assets.UploadQueue, log.Component("assets"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := syncer.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("Upload queue watcher stopped", "path", cfg.Assets.UploadQueue, "error", err)
		}
	}()

	log.Info("Upload queue watcher started", "path", cfg.Assets.UploadQueue)

	return &AssetWatcherHandle{cancel: cancel, done: done}, nil
}

// CacheGCJob runs periodic value log GC on the page cache.
type CacheGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CacheGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCacheGCJob provides the periodic page cache GC job.
func ProvideCacheGCJob(i do.Injector) (*CacheGCJob, error) {
	cacheHandle := do.MustInvoke[*ViewCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	if cacheHandle.Cache == nil {
		return &CacheGCJob{cancel: cancel}, nil
	}

	go func() {
		ticker := time.NewTicker(cacheGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := cacheHandle.Cache.RunGC(); n > 0 {
					log.Debug("Page cache GC completed", "rewritten", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Page cache GC job started", "interval", cacheGCInterval)

	return &CacheGCJob{cancel: cancel}, nil
}
