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

const photoColumns = `id, beach_id, url, thumbnail, photographer, photographer_url, blur_hash, created_at`

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (domain.Photo, error) {
	var (
		p                                                   domain.Photo
		thumbnail, photographer, photographerURL, blurHash sql.NullString
		createdAt                                           string
	)
	err := scanner.Scan(&p.ID, &p.BeachID, &p.URL, &thumbnail, &photographer, &photographerURL, &blurHash, &createdAt)
	if err != nil {
		return p, err
	}
	p.Thumbnail = thumbnail.String
	p.Photographer = photographer.String
	p.PhotographerURL = photographerURL.String
	p.BlurHash = blurHash.String
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, fmt.Errorf("parse photo created_at: %w", err)
	}
	return p, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPhoto(ctx context.Context, ex execer, p *domain.Photo) error {
	if p.ID == "" {
		photoID, err := id.Generate(id.PrefixPhoto)
		if err != nil {
			return err
		}
		p.ID = photoID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := ex.ExecContext(ctx, `INSERT INTO photos (`+photoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BeachID, p.URL, nullString(p.Thumbnail), nullString(p.Photographer),
		nullString(p.PhotographerURL), nullString(p.BlurHash), formatTime(p.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithMessage("beach not found")
	}
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// AddPhoto appends a photo to a beach.
func (s *Store) AddPhoto(ctx context.Context, p *domain.Photo) error {
	if p.BeachID == "" || p.URL == "" {
		return store.ErrInvalidInput.WithMessage("photo beach id and url are required")
	}
	if err := insertPhoto(ctx, s.db, p); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE beaches SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), p.BeachID)
	return err
}

// PrimaryPhoto returns the first photo inserted for a beach, or nil when the
// beach has none.
func (s *Store) PrimaryPhoto(ctx context.Context, beachID string) (*domain.Photo, error) {
	p, err := scanPhoto(s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE beach_id = ? ORDER BY rowid ASC LIMIT 1`, beachID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("primary photo: %w", err)
	}
	return &p, nil
}

// ListPhotos returns a beach's photos in insertion order.
func (s *Store) ListPhotos(ctx context.Context, beachID string) ([]domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE beach_id = ? ORDER BY rowid ASC`, beachID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// ListVibes returns a beach's vibe names.
func (s *Store) ListVibes(ctx context.Context, beachID string) ([]string, error) {
	names, err := s.queryStrings(ctx, `SELECT name FROM vibes WHERE beach_id = ? ORDER BY rowid`, beachID)
	if err != nil {
		return nil, fmt.Errorf("list vibes: %w", err)
	}
	return names, nil
}

// ListActivities returns a beach's activity names.
func (s *Store) ListActivities(ctx context.Context, beachID string) ([]string, error) {
	names, err := s.queryStrings(ctx, `SELECT name FROM activities WHERE beach_id = ? ORDER BY rowid`, beachID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return names, nil
}

// ListFacilities returns a beach's facility names.
func (s *Store) ListFacilities(ctx context.Context, beachID string) ([]string, error) {
	names, err := s.queryStrings(ctx, `SELECT name FROM facilities WHERE beach_id = ? ORDER BY rowid`, beachID)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	return names, nil
}

// ListBestMonths returns a beach's best months in ascending order.
func (s *Store) ListBestMonths(ctx context.Context, beachID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month FROM best_months WHERE beach_id = ? ORDER BY month`, beachID)
	if err != nil {
		return nil, fmt.Errorf("list best months: %w", err)
	}
	defer rows.Close()

	months := []int{}
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// BeachIDsByVibe returns the ids of beaches tagged with vibe.
func (s *Store) BeachIDsByVibe(ctx context.Context, vibe string) (ids []string, err error) {
	defer s.observe("beach_ids_by_vibe", time.Now(), &err)
	ids, err = s.queryStrings(ctx, `SELECT DISTINCT beach_id FROM vibes WHERE name = ?`, vibe)
	if err != nil {
		return nil, fmt.Errorf("beach ids by vibe: %w", err)
	}
	return ids, nil
}

// BeachIDsByActivity returns the ids of beaches offering activity.
func (s *Store) BeachIDsByActivity(ctx context.Context, activity string) (ids []string, err error) {
	defer s.observe("beach_ids_by_activity", time.Now(), &err)
	ids, err = s.queryStrings(ctx, `SELECT DISTINCT beach_id FROM activities WHERE name = ?`, activity)
	if err != nil {
		return nil, fmt.Errorf("beach ids by activity: %w", err)
	}
	return ids, nil
}

// ListCountries returns the distinct countries in ascending order.
func (s *Store) ListCountries(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT country FROM beaches ORDER BY country`)
}

// ListVibeNames returns the distinct vibe names in ascending order.
func (s *Store) ListVibeNames(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT name FROM vibes ORDER BY name`)
}

// ListActivityNames returns the distinct activity names in ascending order.
func (s *Store) ListActivityNames(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT name FROM activities ORDER BY name`)
}

// namesByBeach loads a whole name table grouped by beach id.
func (s *Store) namesByBeach(ctx context.Context, table string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT beach_id, name FROM `+table+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var beachID, name string
		if err := rows.Scan(&beachID, &name); err != nil {
			return nil, err
		}
		out[beachID] = append(out[beachID], name)
	}
	return out, rows.Err()
}
