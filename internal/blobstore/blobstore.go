// Package blobstore stores raw song assets (audio, page images, notation
// files) in a local content-addressed tree. Metadata about each blob lives
// in the song store; this package only moves bytes.
package blobstore

import (
	"context"
	"io"
)

// PutResult describes one persisted payload.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	BlobKey   string
}

// Store is the byte-storage abstraction used by the song service.
type Store interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
