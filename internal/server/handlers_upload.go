package server

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"augnotes/internal/mei"
	"augnotes/internal/models"
	"augnotes/internal/score"
)

type indexView struct {
	Empty bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", indexView{
		Empty: r.URL.Query().Get("empty") != "",
	})
}

// handleUpload creates exactly one song from a multipart request with
// file groups mp3, ogg, mei (optional), and page (one or more, order
// preserving). Missing required groups redirect back to the form.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Uploads.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Uploads.MultipartMaxMemory); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("parse upload: %w", err)))
		return
	}

	form := r.MultipartForm
	mp3Files := form.File["mp3"]
	oggFiles := form.File["ogg"]
	meiFiles := form.File["mei"]
	pageFiles := form.File["page"]

	if len(mp3Files) == 0 || len(oggFiles) == 0 || len(pageFiles) == 0 {
		http.Redirect(w, r, "/?empty=1", http.StatusSeeOther)
		return
	}

	ctx := r.Context()

	mp3Blob, err := s.ingestPart(r, mp3Files[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	oggBlob, err := s.ingestPart(r, oggFiles[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pages := make([]string, 0, len(pageFiles))
	for _, header := range pageFiles {
		blob, err := s.ingestPart(r, header)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		pages = append(pages, blob.ID)
	}

	var (
		meiBlobID string
		data      score.Data
	)
	if len(meiFiles) > 0 {
		raw, blob, err := s.ingestMEIPart(r, meiFiles[0])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		meiBlobID = blob.ID
		parsed, err := mei.ParseBytes(raw)
		if err != nil {
			s.writeError(w, r, badRequest(err))
			return
		}
		data = parsed.Data()
	} else {
		data = score.Empty(len(pages))
	}

	encoded, err := data.Encode()
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	song := &models.Song{
		MP3BlobID: mp3Blob.ID,
		OggBlobID: oggBlob.ID,
		MEIBlobID: meiBlobID,
		Data:      encoded,
		PageList:  pages,
	}
	if err := s.store.CreateSong(ctx, song); err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	s.log().Info("song uploaded", "song_id", song.ID, "pages", len(pages), "mei", meiBlobID != "")
	http.Redirect(w, r, fmt.Sprintf("/box_edit/%d", song.ID), http.StatusSeeOther)
}

func (s *Server) ingestPart(r *http.Request, header *multipart.FileHeader) (*models.Blob, error) {
	file, err := header.Open()
	if err != nil {
		return nil, badRequest(fmt.Errorf("open uploaded file: %w", err))
	}
	defer file.Close()

	blob, err := s.songs.IngestBlob(r.Context(), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, internalError(err)
	}
	return blob, nil
}

// ingestMEIPart stores the notation file and also returns its bytes for
// the parser.
func (s *Server) ingestMEIPart(r *http.Request, header *multipart.FileHeader) ([]byte, *models.Blob, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, badRequest(fmt.Errorf("open uploaded file: %w", err))
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, internalError(err)
	}

	blob, err := s.songs.IngestBlob(r.Context(), bytes.NewReader(raw), header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, internalError(err)
	}
	return raw, blob, nil
}
