// Package search indexes the beach catalog in Bleve for full-text search
// and radius lookups.
package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/store"
)

// BeachIndex wraps a Bleve index of beach documents.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type BeachIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string // Directory for index storage; empty keeps the index in memory.
	Logger   *slog.Logger
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup triggers a rebuild.
const mappingVersion = "1"

const batchSize = 500

var _ store.SearchIndexer = (*BeachIndex)(nil)

// Open creates or opens the beach index. An existing index with a stale
// mapping version or that fails to open is removed and recreated.
func Open(opts Options) (*BeachIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &BeachIndex{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "beaches.bleve")
	versionPath := filepath.Join(opts.DataPath, "beaches.version")

	var index bleve.Index
	needsRebuild := false

	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			var err error
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &BeachIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index.
func (s *BeachIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBeach adds or replaces a beach document.
func (s *BeachIndex) IndexBeach(_ context.Context, rec *domain.BeachRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := newDocument(rec)
	return s.index.Index(doc.ID, doc.toMap())
}

// IndexBeaches indexes records in batches.
func (s *BeachIndex) IndexBeaches(recs []domain.BeachRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(recs); i += batchSize {
		end := min(i+batchSize, len(recs))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			doc := newDocument(&recs[j])
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteBeach removes a beach document.
func (s *BeachIndex) DeleteBeach(_ context.Context, beachID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(beachID)
}

// DocumentCount returns the number of indexed beaches.
func (s *BeachIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and recreates it empty.
func (s *BeachIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

// RecordSource lists every beach with the fields the index needs.
type RecordSource interface {
	ListBeachRecords(ctx context.Context) ([]domain.BeachRecord, error)
	CountBeaches(ctx context.Context) (int, error)
}

// Sync rebuilds the index from src when its document count differs from
// the catalog's beach count. It reports whether a rebuild ran.
func (s *BeachIndex) Sync(ctx context.Context, src RecordSource) (bool, error) {
	want, err := src.CountBeaches(ctx)
	if err != nil {
		return false, fmt.Errorf("count beaches: %w", err)
	}
	have, err := s.DocumentCount()
	if err != nil {
		return false, fmt.Errorf("count documents: %w", err)
	}
	if uint64(want) == have {
		return false, nil
	}

	s.logger.Info("search index out of date, reindexing", "beaches", want, "documents", have)

	recs, err := src.ListBeachRecords(ctx)
	if err != nil {
		return false, fmt.Errorf("list beach records: %w", err)
	}
	if err := s.Rebuild(); err != nil {
		return false, err
	}
	if err := s.IndexBeaches(recs); err != nil {
		return false, err
	}
	return true, nil
}
