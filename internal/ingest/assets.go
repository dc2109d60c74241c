package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beachatlas/beachatlas-server/internal/domain"
	"github.com/beachatlas/beachatlas-server/internal/media/images"
	"github.com/beachatlas/beachatlas-server/internal/util"
	"github.com/beachatlas/beachatlas-server/internal/watcher"
)

const (
	// ProcessedDir is the queue subdirectory synced uploads are moved into.
	ProcessedDir = "_processed"

	// ManualUploadPhotographer credits photos added through the upload queue.
	ManualUploadPhotographer = "Manual Upload"

	defaultQuietPeriod = 2 * time.Second
)

// AssetStore is the part of the store asset sync uses.
type AssetStore interface {
	ListAllBeaches(ctx context.Context) ([]domain.Beach, error)
	AddPhoto(ctx context.Context, photo *domain.Photo) error
}

// SyncResult counts what an asset sync did.
type SyncResult struct {
	Folders   int
	Unmatched int
	Uploaded  int
	Skipped   int
	Failed    int
}

// AssetSyncer imports photos dropped into an upload queue. Each queue
// folder is named after a beach (by slug or by name); its images become
// photos of that beach.
type AssetSyncer struct {
	store     AssetStore
	processor *images.Processor
	queueDir  string
	logger    *slog.Logger
	quiet     time.Duration
}

// NewAssetSyncer creates a syncer over queueDir.
func NewAssetSyncer(s AssetStore, processor *images.Processor, queueDir string, logger *slog.Logger) *AssetSyncer {
	return &AssetSyncer{
		store:     s,
		processor: processor,
		queueDir:  queueDir,
		logger:    logger,
		quiet:     defaultQuietPeriod,
	}
}

// Sync imports every queued folder once.
func (a *AssetSyncer) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	entries, err := os.ReadDir(a.queueDir)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Info("upload queue does not exist", "path", a.queueDir)
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("read upload queue: %w", err)
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() && !isHidden(e.Name()) && e.Name() != ProcessedDir {
			folders = append(folders, e.Name())
		}
	}
	if len(folders) == 0 {
		return result, nil
	}

	beaches, err := a.store.ListAllBeaches(ctx)
	if err != nil {
		return result, fmt.Errorf("list beaches: %w", err)
	}

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Folders++

		beach := MatchBeach(folder, beaches)
		if beach == nil {
			a.logger.Warn("no beach matches upload folder", "folder", folder)
			result.Unmatched++
			continue
		}
		a.syncFolder(ctx, folder, beach, &result)
	}

	a.logger.Info("asset sync complete",
		"folders", result.Folders,
		"uploaded", result.Uploaded,
		"unmatched", result.Unmatched,
		"failed", result.Failed,
	)
	return result, nil
}

func (a *AssetSyncer) syncFolder(ctx context.Context, folder string, beach *domain.Beach, result *SyncResult) {
	log := a.logger.With("folder", folder, "slug", beach.Slug)
	dir := filepath.Join(a.queueDir, folder)

	files, err := os.ReadDir(dir)
	if err != nil {
		log.Error("failed to read upload folder", "error", err)
		result.Failed++
		return
	}

	doneDir := filepath.Join(a.queueDir, ProcessedDir, beach.Slug)
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || isHidden(name) {
			continue
		}
		if !images.IsImage(name) {
			log.Debug("skipping non-image upload", "file", name)
			result.Skipped++
			continue
		}

		src := filepath.Join(dir, name)
		imported, err := a.processor.Import(src, images.BeachKey(beach.Slug, name))
		if err != nil {
			log.Error("failed to import upload", "file", name, "error", err)
			result.Failed++
			continue
		}

		photo := &domain.Photo{
			BeachID:      beach.ID,
			URL:          imported.URL,
			Thumbnail:    imported.URL,
			Photographer: ManualUploadPhotographer,
			BlurHash:     imported.BlurHash,
		}
		if err := a.store.AddPhoto(ctx, photo); err != nil {
			log.Error("failed to record photo", "file", name, "error", err)
			result.Failed++
			continue
		}

		if err := moveFile(src, filepath.Join(doneDir, name)); err != nil {
			log.Warn("failed to move processed upload", "file", name, "error", err)
		}
		log.Info("uploaded photo", "file", name, "url", imported.URL)
		result.Uploaded++
	}

	// Only succeeds once the folder is empty.
	if err := os.Remove(dir); err == nil {
		log.Debug("removed empty upload folder")
	}
}

// Watch syncs once, then re-syncs whenever new files settle in the queue,
// until ctx is cancelled.
func (a *AssetSyncer) Watch(ctx context.Context) error {
	if err := os.MkdirAll(a.queueDir, 0o755); err != nil {
		return fmt.Errorf("create upload queue: %w", err)
	}

	w, err := watcher.New(a.logger, watcher.Options{IgnoreDirs: []string{ProcessedDir}})
	if err != nil {
		return err
	}
	defer w.Stop() //nolint:errcheck // best-effort shutdown

	if err := w.Watch(a.queueDir); err != nil {
		return err
	}
	go w.Start(ctx) //nolint:errcheck // returns on ctx cancel or Stop

	if _, err := a.Sync(ctx); err != nil {
		a.logger.Error("asset sync failed", "error", err)
	}
	a.logger.Info("watching upload queue", "path", a.queueDir)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Events():
			if ev.Type == watcher.EventAdded && pending == nil {
				pending = time.After(a.quiet)
			}
		case err := <-w.Errors():
			a.logger.Warn("upload queue watcher error", "error", err)
		case <-pending:
			pending = nil
			if _, err := a.Sync(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("asset sync failed", "error", err)
			}
		}
	}
}

// MatchBeach finds the beach an upload folder refers to: by slug first,
// then by name.
func MatchBeach(folder string, beaches []domain.Beach) *domain.Beach {
	for i := range beaches {
		if beaches[i].Slug == folder {
			return &beaches[i]
		}
	}
	for i := range beaches {
		if util.MatchesFolderName(folder, beaches[i].Name) {
			return &beaches[i]
		}
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.Rename(src, dst)
}
