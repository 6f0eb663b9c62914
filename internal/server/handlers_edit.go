package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"augnotes/internal/models"
	"augnotes/internal/score"
)

// editStep describes one of the two sequential annotation steps. Both
// share the same GET/POST contract and differ only in template and the
// page the browser advances to after a save.
type editStep struct {
	templateName string
	nextPath     string // fmt pattern taking the song id
}

var (
	boxEditStep  = editStep{templateName: "box_edit.html", nextPath: "/time_edit/%d"}
	timeEditStep = editStep{templateName: "time_edit.html", nextPath: "/zip/%d"}
)

type editView struct {
	SongID   int64
	DataJSON template.JS
	MP3URL   string
	OggURL   string
	PageURLs []string
}

func (s *Server) handleBoxEditForm(w http.ResponseWriter, r *http.Request) {
	s.handleEditForm(w, r, boxEditStep)
}

func (s *Server) handleBoxEditSubmit(w http.ResponseWriter, r *http.Request) {
	s.handleEditSubmit(w, r, boxEditStep)
}

func (s *Server) handleTimeEditForm(w http.ResponseWriter, r *http.Request) {
	s.handleEditForm(w, r, timeEditStep)
}

func (s *Server) handleTimeEditSubmit(w http.ResponseWriter, r *http.Request) {
	s.handleEditSubmit(w, r, timeEditStep)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request, step editStep) {
	song, ok := s.songOr404(w, r)
	if !ok {
		return
	}

	view := editView{
		SongID:   song.ID,
		DataJSON: template.JS(song.Data),
		MP3URL:   serveURL(song.MP3BlobID),
		OggURL:   serveURL(song.OggBlobID),
	}
	for _, id := range song.PageList {
		view.PageURLs = append(view.PageURLs, serveURL(id))
	}
	s.render(w, http.StatusOK, step.templateName, view)
}

// handleEditSubmit overwrites the song's annotation document wholesale.
// Documents whose page count does not match the song's page list are
// rejected.
func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request, step editStep) {
	song, ok := s.songOr404(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	raw := r.PostFormValue("data")
	data, err := score.Parse(raw)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	if err := data.Validate(len(song.PageList)); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	encoded, err := data.Encode()
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	if err := s.store.UpdateSongData(r.Context(), song.ID, encoded); err != nil {
		s.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf(step.nextPath, song.ID), http.StatusSeeOther)
}

// songOr404 resolves the id path segment. Non-numeric or unknown ids are
// a not-found condition.
func (s *Server) songOr404(w http.ResponseWriter, r *http.Request) (*models.Song, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, notFound(fmt.Errorf("invalid song id")))
		return nil, false
	}
	song, err := s.store.GetSong(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return song, true
}

func serveURL(blobID string) string {
	return "/serve/" + url.PathEscape(blobID)
}
