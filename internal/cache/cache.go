// Package cache stores rendered catalog views in Badger so repeated page
// and detail requests skip filter resolution and hydration.
//
// Keys are namespaced by view kind and session:
//
//	page:<session>:<canonical criteria>
//	detail:<session>:<slug>
//
// A favorite toggle drops every key under the toggling session, since
// isFavorite is baked into each cached view. Other staleness (new beaches
// from ingestion) is bounded by the entry TTL.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/beachatlas/beachatlas-server/internal/metrics"
)

// Kind is the view namespace of a cache key.
type Kind string

// View kinds.
const (
	KindPage   Kind = "page"
	KindDetail Kind = "detail"
)

// anonymous is the session segment for callers without a session.
const anonymous = "-"

// DefaultTTL bounds how long a cached view may lag the catalog.
const DefaultTTL = 5 * time.Minute

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool
	TTL      time.Duration
	Logger   *slog.Logger
}

// Cache is a TTL-bound view cache.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	// generation advances on every invalidation. A load that spans an
	// invalidation does not store its result.
	mu         sync.RWMutex
	generation uint64
}

// Open opens the cache. InMemory or an empty Path keeps everything in RAM.
func Open(opts Options) (*Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory || opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Cache{db: db, ttl: opts.TTL, logger: opts.Logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key builds a cache key for kind, session and a view-specific suffix.
func Key(kind Kind, sessionID, suffix string) string {
	if sessionID == "" {
		sessionID = anonymous
	}
	return string(kind) + ":" + sessionID + ":" + suffix
}

// Get decodes the entry at key into dst. It reports false on a miss.
func (c *Cache) Get(key string, dst any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, nil
}

// Set stores v at key with the cache TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(c.ttl))
	})
}

// InvalidateSession drops every cached view for sessionID.
func (c *Cache) InvalidateSession(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	prefixes := [][]byte{
		[]byte(Key(KindPage, sessionID, "")),
		[]byte(Key(KindDetail, sessionID, "")),
	}

	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, prefix := range prefixes {
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list session keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush invalidation: %w", err)
	}

	metrics.CacheInvalidations.Inc()
	c.logger.Debug("invalidated session views", "session_id", sessionID, "keys", len(keys))
	return nil
}

// RunGC reclaims value log space left behind by expired and invalidated
// views, returning how many log files were rewritten. In-memory caches have
// no value log.
func (c *Cache) RunGC() int {
	if c.db.Opts().InMemory {
		return 0
	}
	n := 0
	for c.db.RunValueLogGC(0.5) == nil {
		n++
	}
	return n
}

// Len returns the number of live entries. Used by tests and diagnostics.
func (c *Cache) Len() int {
	n := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// GetOrLoad returns the cached view at key, or calls load and caches its
// result. A nil cache always loads. Cache failures are logged and never
// fail the request.
func GetOrLoad[T any](c *Cache, kind Kind, key string, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}

	var cached T
	hit, err := c.Get(key, &cached)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if hit {
		metrics.CacheHits.WithLabelValues(string(kind)).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(string(kind)).Inc()

	gen := c.currentGeneration()
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := c.setIfGeneration(gen, key, v); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// setIfGeneration stores v only when no invalidation has happened since gen
// was read. The read lock is held across the write so an invalidation either
// sees the entry and deletes it, or has already advanced the generation.
func (c *Cache) setIfGeneration(gen uint64, key string, v any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.generation != gen {
		c.logger.Debug("skipped stale view", "key", key)
		return nil
	}
	return c.Set(key, v)
}
