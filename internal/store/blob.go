package store

import (
	"context"
	"io"
)

// BlobStore persists opaque binary objects under string keys.
type BlobStore interface {
	// Put writes size bytes from r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the object under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
