package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/id"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// GetSubscriberByEmail looks up a subscriber case-insensitively.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	var (
		sub       domain.Subscriber
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM subscribers WHERE email = ?`, strings.TrimSpace(email),
	).Scan(&sub.ID, &sub.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse subscriber created_at: %w", err)
	}
	return &sub, nil
}

// CreateSubscriber inserts a subscriber. A duplicate email returns
// store.ErrAlreadyExists.
func (s *Store) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	if sub.ID == "" {
		subID, err := id.Generate(id.PrefixSubscriber)
		if err != nil {
			return err
		}
		sub.ID = subID
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.Email = strings.TrimSpace(sub.Email)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, created_at) VALUES (?, ?, ?)`,
		sub.ID, sub.Email, formatTime(sub.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("email already subscribed")
	}
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}
