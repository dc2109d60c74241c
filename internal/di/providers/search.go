package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.BeachIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it to the
// store so ingested beaches are indexed as they are written.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.Open(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "path", cfg.Search.Path, "documents", docCount)

	return &SearchIndexHandle{BeachIndex: index}, nil
}

// SyncSearchIndex reindexes in the background when the index and the
// catalog disagree, e.g. after an ingestion run against a stopped server.
// Should be called after all services are wired.
func SyncSearchIndex(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		rebuilt, err := indexHandle.Sync(context.Background(), storeHandle.Store)
		switch {
		case err != nil:
			log.Error("Search index sync failed", "error", err)
		case rebuilt:
			count, _ := indexHandle.DocumentCount()
			log.Info("Search index rebuilt", "documents", count)
		}
	}()
}
