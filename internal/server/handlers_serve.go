package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// handleServe streams raw blob content by reference, used for audio and
// page previews during editing. No transformation, no range handling.
func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	ref, err := url.PathUnescape(r.PathValue("ref"))
	if err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("invalid blob reference")))
		return
	}

	blob, content, err := s.songs.OpenBlob(r.Context(), ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer content.Close()

	mediaType := blob.MediaType
	if mediaType == "" {
		mediaType = fallbackMediaType
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.FormatInt(blob.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		s.log().Warn("serve blob", "blob_id", blob.ID, "error", err)
	}
}
