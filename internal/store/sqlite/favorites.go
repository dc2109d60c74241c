package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/id"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// GetFavorite returns the favorite row for (sessionID, beachID).
func (s *Store) GetFavorite(ctx context.Context, sessionID, beachID string) (*domain.Favorite, error) {
	var (
		f         domain.Favorite
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, beach_id, created_at FROM favorites WHERE session_id = ? AND beach_id = ?`,
		sessionID, beachID,
	).Scan(&f.ID, &f.SessionID, &f.BeachID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse favorite created_at: %w", err)
	}
	return &f, nil
}

// AddFavorite inserts a favorite. An unknown beach returns
// store.ErrNotFound; an existing row returns store.ErrAlreadyExists.
func (s *Store) AddFavorite(ctx context.Context, f *domain.Favorite) (err error) {
	defer s.observe("add_favorite", time.Now(), &err)

	if f.ID == "" {
		if f.ID, err = id.Generate(id.PrefixFavorite); err != nil {
			return err
		}
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, session_id, beach_id, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.SessionID, f.BeachID, formatTime(f.CreatedAt),
	)
	switch {
	case isForeignKeyViolation(err):
		return store.ErrNotFound.WithMessage("beach not found")
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithMessage("beach already favorited")
	case err != nil:
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes the favorite row for (sessionID, beachID). Removing
// a missing row is not an error.
func (s *Store) RemoveFavorite(ctx context.Context, sessionID, beachID string) (err error) {
	defer s.observe("remove_favorite", time.Now(), &err)

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE session_id = ? AND beach_id = ?`, sessionID, beachID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether sessionID has favorited beachID.
func (s *Store) IsFavorite(ctx context.Context, sessionID, beachID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE session_id = ? AND beach_id = ?)`,
		sessionID, beachID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

// FavoriteBeachIDs returns the beach ids favorited by sessionID.
func (s *Store) FavoriteBeachIDs(ctx context.Context, sessionID string) (ids []string, err error) {
	defer s.observe("favorite_beach_ids", time.Now(), &err)
	ids, err = s.queryStrings(ctx, `SELECT beach_id FROM favorites WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("favorite beach ids: %w", err)
	}
	return ids, nil
}
