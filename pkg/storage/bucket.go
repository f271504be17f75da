package storage

import (
	"context"
	"fmt"

	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/rs/zerolog"
	"gocloud.dev/blob"
)

const backendBucket = "bucket"

// Bucket stores documents as objects in a gocloud blob bucket. Destinations
// are object keys.
type Bucket struct {
	bucket *blob.Bucket
	logger zerolog.Logger
}

// NewBucket wraps an open bucket. The caller keeps ownership of it.
func NewBucket(bucket *blob.Bucket) *Bucket {
	return &Bucket{
		bucket: bucket,
		logger: logging.NewLogger("storage").With().Str("backend", backendBucket).Logger(),
	}
}

// SetLogger replaces the store's logger.
func (b *Bucket) SetLogger(logger zerolog.Logger) {
	b.logger = logger.With().Str("backend", backendBucket).Logger()
}

// OpenBucket opens the bucket at url (mem://, file:///dir, s3://name, ...).
// The driver for the scheme must be linked in by the caller. Close the
// returned *blob.Bucket when done.
func OpenBucket(ctx context.Context, url string) (*Bucket, *blob.Bucket, error) {
	bkt, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return NewBucket(bkt), bkt, nil
}

// Exists reports whether the object dest exists.
func (b *Bucket) Exists(ctx context.Context, dest string) (bool, error) {
	ok, err := b.bucket.Exists(ctx, dest)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", dest, err)
	}
	return ok, nil
}

// Write uploads data to dest. The object only becomes visible when the
// writer closes successfully; a failed write is aborted by cancelling the
// writer's context before Close.
func (b *Bucket) Write(ctx context.Context, dest string, data []byte) (err error) {
	defer func() { observeWrite(backendBucket, len(data), err) }()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer, err := b.bucket.NewWriter(wctx, dest, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", dest, err)
	}

	if _, err = writer.Write(data); err != nil {
		cancel()
		writer.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err = writer.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", dest, err)
	}

	b.logger.Debug().Str("destination", dest).Int("bytes", len(data)).Msg("Document written")
	return nil
}

// Read returns the content of the object dest.
func (b *Bucket) Read(ctx context.Context, dest string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dest, err)
	}
	return data, nil
}
