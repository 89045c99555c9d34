package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Bucket is a flat namespace of immutable blobs. Implementations must be
// safe for concurrent use and must never expose a partially written object.
type Bucket interface {
	// Put stores data under key. It fails with ErrObjectExists instead of
	// overwriting.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether key is stored without reading its content.
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
	// Check reports whether the backend is reachable.
	Check(ctx context.Context) error
}

// validKey accepts bare names only: no separators, no parent segments.
func validKey(key string) bool {
	if key == "" || key == "." || strings.Contains(key, "..") {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && filepath.Base(key) == key
}

// contentTypeFor picks a mime type from the key extension.
func contentTypeFor(key string) string {
	switch filepath.Ext(key) {
	case ".json":
		return "application/json"
	case ".webm":
		return "audio/webm"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
