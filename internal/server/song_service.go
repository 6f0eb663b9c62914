package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"augnotes/internal/blobstore"
	"augnotes/internal/models"
	"augnotes/internal/store"
)

const fallbackMediaType = "application/octet-stream"

// SongService orchestrates song workflows over the store and blob store:
// asset ingest, presentation metadata, and deletion with example-blob
// protection.
type SongService struct {
	store store.SongStore
	blobs blobstore.Store
}

// NewSongService constructs a SongService.
func NewSongService(songStore store.SongStore, blobs blobstore.Store) *SongService {
	return &SongService{store: songStore, blobs: blobs}
}

// IngestBlob stores content bytes and records its metadata row. Identical
// content shares one stored object; the metadata row is always new.
func (s *SongService) IngestBlob(ctx context.Context, content io.Reader, filename, mediaType string) (*models.Blob, error) {
	if content == nil {
		return nil, badRequest(fmt.Errorf("content is required"))
	}

	result, err := s.blobs.Put(ctx, content)
	if err != nil {
		return nil, err
	}

	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "." || filename == string(filepath.Separator) {
		filename = ""
	}
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" && filename != "" {
		mediaType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if mediaType == "" {
		mediaType = fallbackMediaType
	}

	blob := &models.Blob{
		ID:        uuid.NewString(),
		BlobKey:   result.BlobKey,
		SHA256:    result.SHA256,
		SizeBytes: result.SizeBytes,
		Filename:  filename,
		MediaType: mediaType,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateBlob(ctx, blob); err != nil {
		// The content object may be shared; leave it for later cleanup.
		return nil, err
	}
	return blob, nil
}

// OpenBlob resolves a blob reference and opens its content.
func (s *SongService) OpenBlob(ctx context.Context, id string) (*models.Blob, io.ReadCloser, error) {
	blob, err := s.store.GetBlob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if blob == nil {
		return nil, nil, notFound(fmt.Errorf("unknown blob reference"))
	}
	rc, err := s.blobs.Open(ctx, blob.BlobKey)
	if err != nil {
		return nil, nil, notFound(fmt.Errorf("blob content missing: %w", err))
	}
	return blob, rc, nil
}

// Info resolves presentation metadata for one song against the example.
func (s *SongService) Info(ctx context.Context, song *models.Song, example *models.SongInfo) (*models.SongInfo, error) {
	var ids []string
	if song != nil {
		ids = song.BlobIDs()
	}
	blobs, err := s.store.GetBlobs(ctx, ids)
	if err != nil {
		return nil, err
	}
	lookup := func(id string) *models.Blob {
		blob := blobs[id]
		if blob == nil {
			return nil
		}
		ok, err := s.blobs.Exists(ctx, blob.BlobKey)
		if err != nil || !ok {
			return nil
		}
		return blob
	}
	return models.NewSongInfo(song, example, lookup), nil
}

// Delete removes a song and garbage-collects its exclusively-owned audio
// and page blobs. Blobs referenced by the example, by id or by content,
// are never removed. The example itself is never deletable.
func (s *SongService) Delete(ctx context.Context, song, example *models.Song) error {
	if song == nil {
		return notFound(store.ErrSongNotFound)
	}
	if song.IsExample() || (example != nil && song.ID == example.ID) {
		return forbidden(fmt.Errorf("the example song cannot be deleted"))
	}

	owned := make([]string, 0, len(song.PageList)+2)
	owned = append(owned, song.MP3BlobID, song.OggBlobID)
	owned = append(owned, song.PageList...)

	protectedIDs := map[string]struct{}{}
	protectedKeys := map[string]struct{}{}
	if example != nil {
		exampleBlobs := append([]string{example.MP3BlobID, example.OggBlobID}, example.PageList...)
		rows, err := s.store.GetBlobs(ctx, exampleBlobs)
		if err != nil {
			return err
		}
		for id, blob := range rows {
			protectedIDs[id] = struct{}{}
			protectedKeys[blob.BlobKey] = struct{}{}
		}
	}

	// Song row first; a crash after this point leaks blobs instead of
	// leaving a song with dangling references.
	if err := s.store.DeleteSong(ctx, song.ID); err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for _, id := range owned {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, shared := protectedIDs[id]; shared {
			continue
		}

		blob, err := s.store.GetBlob(ctx, id)
		if err != nil {
			return err
		}
		if blob == nil {
			continue
		}
		if err := s.store.DeleteBlob(ctx, id); err != nil {
			return err
		}

		if _, shared := protectedKeys[blob.BlobKey]; shared {
			continue
		}
		refs, err := s.store.CountBlobsByKey(ctx, blob.BlobKey)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := s.blobs.Delete(ctx, blob.BlobKey); err != nil {
				return err
			}
		}
	}
	return nil
}
