package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/id"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

const tableBeaches = "beaches"

// beachColumns is the ordered list of columns scanned by scanBeach.
var beachColumns = []any{
	"id", "slug", "name", "country", "region", "lat", "lon",
	"description", "short_description", "crowd_level", "accessibility",
	"entry_fee", "rating", "review_count", "fetched_at", "created_at", "updated_at",
}

const beachSelect = `SELECT id, slug, name, country, region, lat, lon,
	description, short_description, crowd_level, accessibility,
	entry_fee, rating, review_count, fetched_at, created_at, updated_at
	FROM beaches`

// scanBeach scans a row selected with beachColumns into a domain.Beach.
func scanBeach(scanner interface{ Scan(dest ...any) error }) (domain.Beach, error) {
	var (
		b                                                  domain.Beach
		region, description, shortDesc, crowd, access, fee sql.NullString
		fetchedAt                                          sql.NullString
		createdAt, updatedAt                               string
	)

	err := scanner.Scan(
		&b.ID, &b.Slug, &b.Name, &b.Country, &region,
		&b.Coordinates.Lat, &b.Coordinates.Lon,
		&description, &shortDesc, &crowd, &access, &fee,
		&b.Rating, &b.ReviewCount, &fetchedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return b, err
	}

	b.Region = region.String
	b.Description = description.String
	b.ShortDescription = shortDesc.String
	b.CrowdLevel = domain.CrowdLevel(crowd.String)
	b.Accessibility = domain.Accessibility(access.String)
	b.EntryFee = fee.String

	if b.FetchedAt, err = parseNullableTime(fetchedAt); err != nil {
		return b, fmt.Errorf("parse fetched_at: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return b, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return b, fmt.Errorf("parse updated_at: %w", err)
	}

	return b, nil
}

func (s *Store) queryBeaches(ctx context.Context, query string, args ...any) ([]domain.Beach, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	beaches := []domain.Beach{}
	for rows.Next() {
		b, err := scanBeach(rows)
		if err != nil {
			return nil, err
		}
		beaches = append(beaches, b)
	}
	return beaches, rows.Err()
}

// ListBeachPage returns one id-descending page of beaches matching the
// column filter, the restriction and the cursor. It fetches one row beyond
// the limit to learn whether another page exists; the continuation cursor
// is the id of the last row returned. An empty restriction returns an empty
// page without querying.
func (s *Store) ListBeachPage(ctx context.Context, q store.PageQuery) (result *store.PaginatedResult[domain.Beach], err error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Restriction.IsEmpty() {
		return store.EmptyResult[domain.Beach](), nil
	}

	defer s.observe("list_beach_page", time.Now(), &err)

	ds := dialect.From(tableBeaches).
		Prepared(true).
		Select(beachColumns...).
		Order(goqu.I("id").Desc()).
		Limit(uint(q.Limit + 1))

	if q.Filter.Country != "" {
		ds = ds.Where(goqu.C("country").Eq(q.Filter.Country))
	}
	if q.Filter.CrowdLevel != "" {
		ds = ds.Where(goqu.C("crowd_level").Eq(string(q.Filter.CrowdLevel)))
	}
	if q.Filter.Accessibility != "" {
		ds = ds.Where(goqu.C("accessibility").Eq(string(q.Filter.Accessibility)))
	}
	if !q.Restriction.IsUnrestricted() {
		ds = ds.Where(goqu.C("id").In(q.Restriction.IDs()))
	}
	if q.Cursor != "" {
		ds = ds.Where(goqu.C("id").Lt(q.Cursor))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build page query: %w", err)
	}

	beaches, err := s.queryBeaches(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list beach page: %w", err)
	}

	result = &store.PaginatedResult[domain.Beach]{Items: beaches}
	if len(beaches) > q.Limit {
		result.Items = beaches[:q.Limit]
		result.HasMore = true
		result.NextCursor = result.Items[q.Limit-1].ID
	}
	return result, nil
}

// GetBeach returns a beach by id.
func (s *Store) GetBeach(ctx context.Context, id string) (*domain.Beach, error) {
	b, err := scanBeach(s.db.QueryRowContext(ctx, beachSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get beach: %w", err)
	}
	return &b, nil
}

// GetBeachBySlug returns a beach by slug.
func (s *Store) GetBeachBySlug(ctx context.Context, slug string) (b *domain.Beach, err error) {
	defer s.observe("get_beach_by_slug", time.Now(), &err)

	beach, err := scanBeach(s.db.QueryRowContext(ctx, beachSelect+` WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get beach by slug: %w", err)
	}
	return &beach, nil
}

// ListSimilarBeaches returns up to limit beaches in country other than
// excludeID, newest first.
func (s *Store) ListSimilarBeaches(ctx context.Context, country, excludeID string, limit int) ([]domain.Beach, error) {
	beaches, err := s.queryBeaches(ctx,
		beachSelect+` WHERE country = ? AND id != ? ORDER BY id DESC LIMIT ?`,
		country, excludeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list similar beaches: %w", err)
	}
	return beaches, nil
}

// GetBeachesByIDs returns the beaches with the given ids in the order given.
// Unknown ids are skipped.
func (s *Store) GetBeachesByIDs(ctx context.Context, ids []string) ([]domain.Beach, error) {
	if len(ids) == 0 {
		return []domain.Beach{}, nil
	}

	query, args, err := dialect.From(tableBeaches).
		Prepared(true).
		Select(beachColumns...).
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build beaches by ids query: %w", err)
	}

	found, err := s.queryBeaches(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get beaches by ids: %w", err)
	}

	byID := make(map[string]domain.Beach, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	ordered := make([]domain.Beach, 0, len(found))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// ListAllBeaches returns every beach, newest first.
func (s *Store) ListAllBeaches(ctx context.Context) ([]domain.Beach, error) {
	beaches, err := s.queryBeaches(ctx, beachSelect+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all beaches: %w", err)
	}
	return beaches, nil
}

// ListBeachesWithoutPhotos returns beaches that have no photo rows.
func (s *Store) ListBeachesWithoutPhotos(ctx context.Context) ([]domain.Beach, error) {
	beaches, err := s.queryBeaches(ctx, beachSelect+`
		WHERE NOT EXISTS (SELECT 1 FROM photos p WHERE p.beach_id = beaches.id)
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list beaches without photos: %w", err)
	}
	return beaches, nil
}

// BeachSlugExists reports whether a beach with slug exists.
func (s *Store) BeachSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM beaches WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// CountBeaches returns the number of beaches.
func (s *Store) CountBeaches(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beaches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count beaches: %w", err)
	}
	return n, nil
}

// ListSitemapEntries returns every slug with its update time.
func (s *Store) ListSitemapEntries(ctx context.Context) ([]store.SitemapEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, updated_at FROM beaches ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list sitemap entries: %w", err)
	}
	defer rows.Close()

	entries := []store.SitemapEntry{}
	for rows.Next() {
		var slug, updated string
		if err := rows.Scan(&slug, &updated); err != nil {
			return nil, err
		}
		t, err := parseTime(updated)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		entries = append(entries, store.SitemapEntry{Slug: slug, UpdatedAt: t})
	}
	return entries, rows.Err()
}

// CreateBeachRecord inserts a beach and all of its child rows in one
// transaction. Missing IDs and timestamps are filled in. A duplicate slug
// returns store.ErrAlreadyExists.
func (s *Store) CreateBeachRecord(ctx context.Context, rec *domain.BeachRecord) (err error) {
	defer s.observe("create_beach_record", time.Now(), &err)

	if err := prepareRecord(rec); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	b := rec.Beach
	_, err = tx.ExecContext(ctx, `INSERT INTO beaches (
		id, slug, name, country, region, lat, lon, description, short_description,
		crowd_level, accessibility, entry_fee, rating, review_count,
		fetched_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Slug, b.Name, b.Country, nullString(b.Region),
		b.Coordinates.Lat, b.Coordinates.Lon,
		nullString(b.Description), nullString(b.ShortDescription),
		nullString(string(b.CrowdLevel)), nullString(string(b.Accessibility)),
		nullString(b.EntryFee), b.Rating, b.ReviewCount,
		nullTimeString(b.FetchedAt), formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("beach %q already exists", b.Slug))
	}
	if err != nil {
		return fmt.Errorf("insert beach: %w", err)
	}

	for i := range rec.Photos {
		if err := insertPhoto(ctx, tx, &rec.Photos[i]); err != nil {
			return err
		}
	}

	children := []struct {
		table string
		names []string
	}{
		{"activities", rec.Activities},
		{"vibes", rec.Vibes},
		{"facilities", rec.Facilities},
	}
	for _, c := range children {
		for _, name := range c.names {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO `+c.table+` (beach_id, name) VALUES (?, ?)`, b.ID, name,
			); err != nil {
				return fmt.Errorf("insert %s: %w", c.table, err)
			}
		}
	}
	for _, m := range rec.BestMonths {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO best_months (beach_id, month) VALUES (?, ?)`, b.ID, m,
		); err != nil {
			return fmt.Errorf("insert best month %d: %w", m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit beach record: %w", err)
	}

	if err := s.searchIndexer.IndexBeach(ctx, rec); err != nil {
		s.logger.Warn("failed to index beach", "slug", b.Slug, "error", err)
	}
	return nil
}

// DeleteBeachesNameContaining deletes beaches whose name contains fragment
// and returns their ids. Child rows cascade.
func (s *Store) DeleteBeachesNameContaining(ctx context.Context, fragment string) ([]string, error) {
	if fragment == "" {
		return nil, store.ErrInvalidInput.WithMessage("name fragment is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	pattern := "%" + fragment + "%"
	rows, err := tx.QueryContext(ctx, `SELECT id FROM beaches WHERE name LIKE ?`, pattern)
	if err != nil {
		return nil, fmt.Errorf("select beaches to delete: %w", err)
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM beaches WHERE name LIKE ?`, pattern); err != nil {
		return nil, fmt.Errorf("delete beaches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}

	for _, id := range ids {
		if err := s.searchIndexer.DeleteBeach(ctx, id); err != nil {
			s.logger.Warn("failed to remove beach from index", "beach_id", id, "error", err)
		}
	}
	return ids, nil
}

// ListBeachRecords returns every beach with its child collections, for
// rebuilding the search index and building the AI catalog context.
func (s *Store) ListBeachRecords(ctx context.Context) ([]domain.BeachRecord, error) {
	beaches, err := s.ListAllBeaches(ctx)
	if err != nil {
		return nil, err
	}

	vibes, err := s.namesByBeach(ctx, "vibes")
	if err != nil {
		return nil, err
	}
	activities, err := s.namesByBeach(ctx, "activities")
	if err != nil {
		return nil, err
	}

	records := make([]domain.BeachRecord, len(beaches))
	for i, b := range beaches {
		records[i] = domain.BeachRecord{
			Beach:      b,
			Vibes:      vibes[b.ID],
			Activities: activities[b.ID],
		}
	}
	return records, nil
}

func prepareRecord(rec *domain.BeachRecord) error {
	if rec.Slug == "" || rec.Name == "" || rec.Country == "" {
		return store.ErrInvalidInput.WithMessage("beach slug, name and country are required")
	}
	now := time.Now()
	if rec.ID == "" {
		beachID, err := id.NewBeachID()
		if err != nil {
			return err
		}
		rec.ID = beachID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	for _, m := range rec.BestMonths {
		if m < 1 || m > 12 {
			return store.ErrInvalidInput.WithMessage(fmt.Sprintf("best month %d out of range", m))
		}
	}
	for i := range rec.Photos {
		rec.Photos[i].BeachID = rec.ID
	}
	return nil
}
