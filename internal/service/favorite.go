package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beachatlas/beachatlas-server/internal/cache"
	"github.com/beachatlas/beachatlas-server/internal/domain"
	domainerrors "github.com/beachatlas/beachatlas-server/internal/errors"
	"github.com/beachatlas/beachatlas-server/internal/metrics"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// FavoriteService flips favorite state for anonymous sessions.
type FavoriteService struct {
	favorites store.Favorites
	cache     *cache.Cache
	logger    *slog.Logger
}

// NewFavoriteService creates a favorite service. views may be nil.
func NewFavoriteService(favorites store.Favorites, views *cache.Cache, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, cache: views, logger: logger}
}

// Toggle removes the favorite if it exists and adds it otherwise, then
// drops every cached view rendered for the session.
//
// The read and the write are separate statements, so two concurrent toggles
// for the same pair may both observe the same starting state.
func (s *FavoriteService) Toggle(ctx context.Context, beachID, sessionID string) (*domain.ToggleResult, error) {
	if sessionID == "" {
		return nil, domainerrors.Validation("a session is required to favorite beaches")
	}
	if beachID == "" {
		return nil, domainerrors.Validation("beach id is required")
	}

	existing, err := s.favorites.GetFavorite(ctx, sessionID, beachID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get favorite: %w", err)
	}

	result := &domain.ToggleResult{BeachID: beachID}
	if existing != nil {
		if err := s.favorites.RemoveFavorite(ctx, sessionID, beachID); err != nil {
			return nil, fmt.Errorf("remove favorite: %w", err)
		}
		metrics.FavoriteToggles.WithLabelValues("removed").Inc()
	} else {
		err := s.favorites.AddFavorite(ctx, &domain.Favorite{SessionID: sessionID, BeachID: beachID})
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("beach %s not found", beachID)
		case errors.Is(err, store.ErrAlreadyExists):
			// A concurrent toggle inserted it first.
		case err != nil:
			return nil, fmt.Errorf("add favorite: %w", err)
		}
		result.IsFavorite = true
		metrics.FavoriteToggles.WithLabelValues("added").Inc()
	}

	if s.cache != nil {
		if err := s.cache.InvalidateSession(sessionID); err != nil {
			s.logger.Warn("cache invalidation failed", "session_id", sessionID, "error", err)
		}
	}

	s.logger.Debug("favorite toggled", "beach_id", beachID, "is_favorite", result.IsFavorite)
	return result, nil
}
