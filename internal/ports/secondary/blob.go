package secondary

import (
	"context"
	"io"
	"time"
)

// BlobStore is the sink for exported files.
type BlobStore interface {
	// Put stores a new object; it fails if key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts BlobPutOptions) (BlobInfo, error)
	// Get opens an object for reading.
	Get(ctx context.Context, key string) (BlobInfo, io.ReadCloser, error)
	// Delete removes an object, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	// Driver names the backend (fs, s3, memory).
	Driver() string
}

// BlobPutOptions carries object metadata.
type BlobPutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// BlobInfo describes a stored object.
type BlobInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}
