// Package id generates identifiers for catalog rows and sessions.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for NanoID-based identifiers.
const (
	PrefixPhoto      = "photo"
	PrefixFavorite   = "fav"
	PrefixSubscriber = "sub"
	PrefixSession    = "sess"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "photo-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewBeachID returns a UUIDv7 string. Version 7 UUIDs embed a millisecond
// timestamp followed by a monotonic counter, so their canonical string
// form sorts in creation order. Keyset pagination over beaches depends on
// later inserts comparing greater than earlier ones.
func NewBeachID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate beach id: %w", err)
	}
	return u.String(), nil
}

// NewSessionToken returns an opaque anonymous-session token.
func NewSessionToken() (string, error) {
	return Generate(PrefixSession)
}
