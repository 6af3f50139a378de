package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is an object store addressed by slash-separated paths.
type Storage interface {
	// Upload writes reader to path, replacing any existing object.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download opens the object at path. The caller closes it. A missing
	// object is a NOT_FOUND AppError.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. A missing object is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether path holds an object.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns objects whose path starts with prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
