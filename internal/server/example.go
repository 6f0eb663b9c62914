package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sort"

	"augnotes/internal/models"
	"augnotes/internal/score"
	"augnotes/internal/store"
)

//go:embed exampledata
var exampleDataFS embed.FS

const exampleDataFixture = "exampledata/data.json"

// ExampleProvisioner lazily creates the canonical example song from the
// bundled demo assets and clones it on demand.
type ExampleProvisioner struct {
	store store.SongStore
	songs *SongService
}

// NewExampleProvisioner constructs an ExampleProvisioner.
func NewExampleProvisioner(songStore store.SongStore, songs *SongService) *ExampleProvisioner {
	return &ExampleProvisioner{store: songStore, songs: songs}
}

// GetOrCreate returns the canonical example song, creating it exactly
// once. The demo assets are ingested through the same path as real
// uploads; the resulting transient song is cloned into the record keyed
// by the well-known name and then removed. Claiming the name is a
// conditional write, so concurrent first requests cannot double-create.
func (p *ExampleProvisioner) GetOrCreate(ctx context.Context) (*models.Song, error) {
	existing, err := p.store.GetSongByName(ctx, models.ExampleName)
	if err == nil {
		return existing, nil
	}
	if err != store.ErrSongNotFound {
		return nil, err
	}

	transient, err := p.ingestDemoAssets(ctx)
	if err != nil {
		return nil, err
	}

	clone := &models.Song{
		MP3BlobID: transient.MP3BlobID,
		OggBlobID: transient.OggBlobID,
		Data:      transient.Data,
		PageList:  transient.PageList,
	}
	stored, won, err := p.store.CreateNamedSongIfAbsent(ctx, models.ExampleName, clone)
	if err != nil {
		return nil, err
	}

	if won {
		// The example now owns the transient's blobs; drop only the row.
		if err := p.store.DeleteSong(ctx, transient.ID); err != nil {
			return nil, err
		}
	} else {
		// Lost the provisioning race: discard the transient entirely.
		// Its content is identical to the winner's, so the shared CAS
		// objects survive the blob-row GC.
		if err := p.songs.Delete(ctx, transient, stored); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

// MakeExample creates a new, independent song cloned from the example's
// files. With includeData, its annotation document is seeded from the
// bundled fixture instead of the example's live data.
func (p *ExampleProvisioner) MakeExample(ctx context.Context, includeData bool) (*models.Song, error) {
	example, err := p.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	data := example.Data
	if includeData {
		raw, err := fs.ReadFile(exampleDataFS, exampleDataFixture)
		if err != nil {
			return nil, fmt.Errorf("bundled fixture: %w", err)
		}
		data = string(raw)
	}

	song := &models.Song{
		MP3BlobID: example.MP3BlobID,
		OggBlobID: example.OggBlobID,
		Data:      data,
		PageList:  example.PageList,
	}
	if err := p.store.CreateSong(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

// ingestDemoAssets uploads the bundled demo audio and pages and creates
// a transient song, mirroring what the upload handler does.
func (p *ExampleProvisioner) ingestDemoAssets(ctx context.Context) (*models.Song, error) {
	mp3Blob, err := p.ingestFile(ctx, "exampledata/music.mp3", "audio/mpeg")
	if err != nil {
		return nil, err
	}
	oggBlob, err := p.ingestFile(ctx, "exampledata/music.ogg", "audio/ogg")
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(exampleDataFS, "exampledata/pages")
	if err != nil {
		return nil, fmt.Errorf("bundled pages: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no bundled example pages")
	}

	pages := make([]string, 0, len(names))
	for _, name := range names {
		blob, err := p.ingestFile(ctx, "exampledata/pages/"+name, "image/jpeg")
		if err != nil {
			return nil, err
		}
		pages = append(pages, blob.ID)
	}

	encoded, err := score.Empty(len(pages)).Encode()
	if err != nil {
		return nil, err
	}

	song := &models.Song{
		MP3BlobID: mp3Blob.ID,
		OggBlobID: oggBlob.ID,
		Data:      encoded,
		PageList:  pages,
	}
	if err := p.store.CreateSong(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}

func (p *ExampleProvisioner) ingestFile(ctx context.Context, name, mediaType string) (*models.Blob, error) {
	file, err := exampleDataFS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bundled asset %s: %w", name, err)
	}
	defer file.Close()
	return p.songs.IngestBlob(ctx, file, name, mediaType)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	song, err := s.examples.MakeExample(r.Context(), false)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/box_edit/%d", song.ID), http.StatusSeeOther)
}

func (s *Server) handleExampleWithData(w http.ResponseWriter, r *http.Request) {
	song, err := s.examples.MakeExample(r.Context(), true)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/time_edit/%d", song.ID), http.StatusSeeOther)
}
