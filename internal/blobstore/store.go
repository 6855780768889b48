// Package blobstore holds file content on disk (or in memory for tests),
// keyed by the logical path stored in the database. The database row is the
// source of truth; the blobstore only carries bytes.
package blobstore

import (
	"errors"
	"io"
)

// ErrBlobNotFound is returned when no blob exists at the requested key.
var ErrBlobNotFound = errors.New("blob not found")

// Store is the content storage interface. Keys are slash-separated logical
// paths without a leading slash, e.g. "reports/2026/q2.pdf".
type Store interface {
	// Open returns a reader over the blob at key.
	Open(key string) (io.ReadCloser, error)

	// Exists reports whether a blob is present at key.
	Exists(key string) (bool, error)

	// Stage writes r to a temporary location and returns a handle that can
	// promote the bytes to key or discard them. Nothing is visible at key
	// until Promote succeeds.
	Stage(key string, r io.Reader) (Staged, error)

	// Copy duplicates the blob at src to dst. Used to snapshot the current
	// content into the archive before it is overwritten.
	Copy(src, dst string) error

	// Remove deletes the blob at key. Missing blobs are not an error.
	Remove(key string) error

	// RemoveAll deletes every blob under the prefix, and the prefix itself.
	RemoveAll(prefix string) error

	// MkdirAll ensures the directory at key exists.
	MkdirAll(key string) error
}

// Staged is a pending write. Exactly one of Promote or Discard must be
// called; Discard after Promote is a no-op.
type Staged interface {
	// Promote makes the staged bytes visible at the target key.
	Promote() error

	// Discard drops the staged bytes.
	Discard() error

	// Size returns the number of bytes staged.
	Size() int64
}
