package models

import "time"

// Blob is an immutable stored content object referenced by songs.
// BlobKey addresses the bytes in the content store; two blobs with the
// same SHA256 share one stored object.
type Blob struct {
	ID        string    `json:"id"`
	BlobKey   string    `json:"blob_key"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	Filename  string    `json:"filename,omitempty"`
	MediaType string    `json:"media_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
