package providers

import (
	"github.com/samber/do/v2"

	"github.com/beachatlas/beachatlas-server/internal/config"
	"github.com/beachatlas/beachatlas-server/internal/logger"
	"github.com/beachatlas/beachatlas-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.OpenWithOptions(sqlite.Options{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Logger:       log.Component("store"),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path, "max_open_conns", cfg.Database.MaxOpenConns)

	return &StoreHandle{Store: db}, nil
}
