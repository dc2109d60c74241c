package ingest

import (
	"context"
	"fmt"
	"log/slog"
)

// UnnamedFragment marks placeholder beaches left behind by OSM imports.
const UnnamedFragment = "Unnamed"

// CleanupStore is the part of the store cleanup uses.
type CleanupStore interface {
	DeleteBeachesNameContaining(ctx context.Context, fragment string) ([]string, error)
}

// RemoveUnnamed deletes every beach whose name contains "Unnamed", with
// its photos, tags and favorites, and returns how many were removed.
func RemoveUnnamed(ctx context.Context, s CleanupStore, logger *slog.Logger) (int, error) {
	ids, err := s.DeleteBeachesNameContaining(ctx, UnnamedFragment)
	if err != nil {
		return 0, fmt.Errorf("delete unnamed beaches: %w", err)
	}
	if len(ids) == 0 {
		logger.Info("no unnamed beaches found")
	} else {
		logger.Info("removed unnamed beaches", "count", len(ids))
	}
	return len(ids), nil
}
