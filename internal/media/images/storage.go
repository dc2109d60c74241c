// Package images stores beach photos in the asset directory and computes
// their BlurHash placeholders.
package images

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Storage manages the asset directory served under /assets.
// Thread-safe for concurrent operations.
// Keys are slash-separated paths relative to the base directory, such as
// "beaches/navagio/sunset.jpg".
type Storage struct {
	basePath  string
	publicURL string
	mu        sync.RWMutex // Protects file operations
}

// NewStorage creates a Storage rooted at basePath. publicURL is the URL
// prefix under which basePath is served, e.g. "https://beachatlas.example/assets".
func NewStorage(basePath, publicURL string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}

	return &Storage{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Root returns the asset directory.
func (s *Storage) Root() string {
	return s.basePath
}

// Save stores data under key, replacing any existing file.
func (s *Storage) Save(key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}
	p, err := s.Path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Get retrieves the data stored under key.
func (s *Storage) Get(key string) ([]byte, error) {
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found for %s: %w", key, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists checks if a file is stored under key.
func (s *Storage) Exists(key string) bool {
	p, err := s.Path(key)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(p)
	return err == nil
}

// Delete removes the file stored under key.
func (s *Storage) Delete(key string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Hash computes the SHA256 of the file under key, hex encoded.
func (s *Storage) Hash(key string) (string, error) {
	data, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Path returns the filesystem path for key. Keys that are empty, absolute
// or escape the base directory are rejected.
func (s *Storage) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "./") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

// URL returns the public URL for key.
func (s *Storage) URL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicURL + "/" + strings.Join(parts, "/")
}

// BeachKey is the key for a file uploaded for the beach with slug.
func BeachKey(slug, filename string) string {
	return "beaches/" + slug + "/" + filename
}
