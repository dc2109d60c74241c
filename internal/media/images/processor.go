package images

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Content types recognised in the upload queue.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// ContentType returns the MIME type for filename by extension, or
// application/octet-stream when unknown.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsImage reports whether filename has an image extension.
func IsImage(filename string) bool {
	return strings.HasPrefix(ContentType(filename), "image/")
}

// Imported describes a file copied into the asset store.
type Imported struct {
	Key         string
	URL         string
	ContentType string
	BlurHash    string // Empty when the image could not be decoded.
	Hash        string
}

// Processor copies uploaded images into storage.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Storage returns the underlying asset storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Import copies the image at srcPath into storage under key and computes
// its BlurHash. A file that cannot be decoded is still stored; it just has
// no placeholder.
func (p *Processor) Import(srcPath, key string) (*Imported, error) {
	if !IsImage(srcPath) {
		return nil, fmt.Errorf("not an image: %s", filepath.Base(srcPath))
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	if err := p.storage.Save(key, data); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}

	hash, err := p.storage.Hash(key)
	if err != nil {
		return nil, fmt.Errorf("hash asset: %w", err)
	}

	out := &Imported{
		Key:         key,
		URL:         p.storage.URL(key),
		ContentType: ContentType(srcPath),
		Hash:        hash,
	}

	blur, format, err := BlurHash(data)
	if err != nil {
		p.logger.Warn("blurhash failed",
			"key", key,
			"error", err,
		)
		return out, nil
	}
	out.BlurHash = blur

	p.logger.Debug("imported image",
		"key", key,
		"format", format,
		"size", len(data),
		"hash", hash[:8]+"...",
	)
	return out, nil
}
