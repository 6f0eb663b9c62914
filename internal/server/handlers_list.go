package server

import (
	"net/http"
	"strconv"

	"augnotes/internal/models"
)

const (
	defaultListPage   = 1
	defaultListNItems = 20

	// countProbeCap bounds the total-count query: past this many rows
	// beyond the current offset the total is reported as unknown.
	countProbeCap = 600
)

type listView struct {
	Songs      []*models.SongInfo
	Example    *models.SongInfo
	Page       int
	PrevPage   int
	NextPage   int
	NItems     int
	Offset     int
	TotalItems *int
	Deleted    int
	Failed     int
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", defaultListPage)
	nitems := queryInt(r, "nitems", defaultListNItems)
	if page < 1 {
		page = 1
	}
	if nitems < 1 {
		nitems = defaultListNItems
	}
	offset := (page - 1) * nitems

	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	exampleInfo, err := s.songs.Info(ctx, example, nil)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	count, capped, err := s.store.CountSongsFrom(ctx, offset, countProbeCap)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	var totalItems *int
	if !capped {
		total := offset + count
		totalItems = &total
	}

	songs, err := s.store.ListSongs(ctx, offset, nitems)
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	infos := make([]*models.SongInfo, 0, len(songs))
	for i := range songs {
		info, err := s.songs.Info(ctx, &songs[i], exampleInfo)
		if err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
		infos = append(infos, info)
	}

	s.render(w, http.StatusOK, "list.html", listView{
		Songs:      infos,
		Example:    exampleInfo,
		Page:       page,
		PrevPage:   page - 1,
		NextPage:   page + 1,
		NItems:     nitems,
		Offset:     offset,
		TotalItems: totalItems,
		Deleted:    queryInt(r, "deleted", 0),
		Failed:     queryInt(r, "failed", 0),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
