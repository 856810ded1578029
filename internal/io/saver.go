package ioutils

import (
	"context"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob" // mem:// URL registration
)

// ErrEmptyName is returned when a payload is saved without a file name.
var ErrEmptyName = errors.New("file name cannot be empty")

// Saver stores an export payload under a file name.
//
// Save replaces any existing object with the same name. Implementations
// must not keep a reference to data after Save returns.
type Saver interface {
	Save(ctx context.Context, name, contentType string, data []byte) error
}

// BlobSaver writes payloads to a gocloud.dev/blob bucket.
//
// The bucket can be a local directory (fileblob), memory (memblob) or any
// other driver registered by the binary. Each Save opens a writer, copies
// the payload and closes the writer, so no handle outlives the call.
//
// Example:
//
//	bucket, _ := blob.OpenBucket(ctx, "mem://")
//	saver := NewBlobSaver(bucket)
//	err := saver.Save(ctx, "out.csv", "text/csv", []byte("a,b\n"))
type BlobSaver struct {
	bucket *blob.Bucket
	dest   string
}

// NewBlobSaver wraps an open bucket. The caller keeps ownership of bucket
// unless it calls Close on the returned saver.
func NewBlobSaver(bucket *blob.Bucket) *BlobSaver {
	return &BlobSaver{bucket: bucket}
}

// OpenSaver opens a BlobSaver for dest.
//
// dest is either:
//   - A bucket URL ("file:///dir", "mem://", ...), opened with blob.OpenBucket
//   - A local directory path, "~" expanded and created if missing
//
// The caller must Close the returned saver.
func OpenSaver(ctx context.Context, dest string) (*BlobSaver, error) {
	if IsBucketURL(dest) {
		bucket, err := blob.OpenBucket(ctx, dest)
		if err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", dest, err)
		}
		return &BlobSaver{bucket: bucket, dest: dest}, nil
	}

	dir, err := ExpandHome(dest)
	if err != nil {
		return nil, err
	}
	if err := EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	// No .attrs sidecar files next to exports.
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{Metadata: fileblob.MetadataDontWrite})
	if err != nil {
		return nil, fmt.Errorf("open directory %s: %w", dir, err)
	}
	return &BlobSaver{bucket: bucket, dest: dir}, nil
}

// Destination returns the resolved directory or bucket URL, if known.
func (s *BlobSaver) Destination() string {
	return s.dest
}

// Bucket returns the underlying bucket.
func (s *BlobSaver) Bucket() *blob.Bucket {
	return s.bucket
}

// Save writes data to the bucket under name with the given content type.
func (s *BlobSaver) Save(ctx context.Context, name, contentType string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}

	opts := &blob.WriterOptions{ContentType: contentType}
	if err := s.bucket.WriteAll(ctx, name, data, opts); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close releases the bucket.
func (s *BlobSaver) Close() error {
	return s.bucket.Close()
}
