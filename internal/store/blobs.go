package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"augnotes/internal/models"
)

const blobColumns = "id, blob_key, sha256, size_bytes, filename, media_type, created_at"

// CreateBlob inserts one blob metadata row.
func (s *Store) CreateBlob(ctx context.Context, blob *models.Blob) error {
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (id, blob_key, sha256, size_bytes, filename, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		blob.ID,
		blob.BlobKey,
		blob.SHA256,
		blob.SizeBytes,
		nullIfEmpty(blob.Filename),
		nullIfEmpty(blob.MediaType),
		formatTime(blob.CreatedAt),
	)
	return err
}

// GetBlob returns one blob row, or nil when the reference is unknown.
func (s *Store) GetBlob(ctx context.Context, id string) (*models.Blob, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE id = ?`, id)
	blob, err := scanBlob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// GetBlobs resolves a set of blob ids to rows. Unknown ids are omitted.
func (s *Store) GetBlobs(ctx context.Context, ids []string) (map[string]*models.Blob, error) {
	blobs := make(map[string]*models.Blob, len(ids))
	for _, id := range ids {
		if _, ok := blobs[id]; ok {
			continue
		}
		blob, err := s.GetBlob(ctx, id)
		if err != nil {
			return nil, err
		}
		if blob != nil {
			blobs[id] = blob
		}
	}
	return blobs, nil
}

// DeleteBlob removes one blob metadata row.
func (s *Store) DeleteBlob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE id = ?", id)
	return err
}

// CountBlobsByKey reports how many blob rows share one content key.
// Content is removed from the blob store only when the last row goes.
func (s *Store) CountBlobsByKey(ctx context.Context, blobKey string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blobs WHERE blob_key = ?", blobKey).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanBlob(row rowScanner) (*models.Blob, error) {
	var (
		blob      models.Blob
		filename  sql.NullString
		mediaType sql.NullString
		createdAt string
	)
	err := row.Scan(&blob.ID, &blob.BlobKey, &blob.SHA256, &blob.SizeBytes, &filename, &mediaType, &createdAt)
	if err != nil {
		return nil, err
	}
	blob.Filename = filename.String
	blob.MediaType = mediaType.String
	if blob.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &blob, nil
}
