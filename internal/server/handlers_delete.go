package server

import (
	"fmt"
	"net/http"
	"strconv"
)

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, r, notFound(fmt.Errorf("invalid song id")))
		return
	}
	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	if err := s.songs.Delete(ctx, song, example); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log().Info("song deleted", "song_id", id)
	http.Redirect(w, r, "/songs", http.StatusSeeOther)
}

// handleDeleteMany deletes a batch of songs. Each id is validated and
// deleted independently; there is no rollback across the batch, and the
// per-id outcomes are surfaced on the listing redirect.
func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	ids := r.PostForm["ids"]

	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	deleted, failed := 0, 0
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			failed++
			continue
		}
		song, err := s.store.GetSong(ctx, id)
		if err != nil {
			failed++
			s.log().Warn("batch delete: load song", "song_id", raw, "error", err)
			continue
		}
		if err := s.songs.Delete(ctx, song, example); err != nil {
			failed++
			s.log().Warn("batch delete: delete song", "song_id", id, "error", err)
			continue
		}
		deleted++
	}

	s.log().Info("batch delete complete", "deleted", deleted, "failed", failed)
	http.Redirect(w, r, fmt.Sprintf("/songs?deleted=%d&failed=%d", deleted, failed), http.StatusSeeOther)
}
