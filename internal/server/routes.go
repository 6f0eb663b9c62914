package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Sign-in flow is the only unauthenticated page.
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	// Every admin route goes through the same guard.
	admin := s.requireAdmin

	// Upload flow.
	mux.HandleFunc("GET /{$}", admin(s.handleIndex))
	mux.HandleFunc("POST /upload", admin(s.handleUpload))

	// Annotation edit steps.
	mux.HandleFunc("GET /box_edit/{id}", admin(s.handleBoxEditForm))
	mux.HandleFunc("POST /box_edit/{id}", admin(s.handleBoxEditSubmit))
	mux.HandleFunc("GET /time_edit/{id}", admin(s.handleTimeEditForm))
	mux.HandleFunc("POST /time_edit/{id}", admin(s.handleTimeEditSubmit))

	// Export and blob passthrough.
	mux.HandleFunc("GET /zip/{id}", admin(s.handleZip))
	mux.HandleFunc("GET /serve/{ref}", admin(s.handleServe))

	// Listing and deletion.
	mux.HandleFunc("GET /songs", admin(s.handleListSongs))
	mux.HandleFunc("POST /delete/{id}", admin(s.handleDelete))
	mux.HandleFunc("POST /delete_many", admin(s.handleDeleteMany))

	// Example provisioning.
	mux.HandleFunc("GET /example", admin(s.handleExample))
	mux.HandleFunc("GET /example_with_data", admin(s.handleExampleWithData))

	return s.withRequestLogging(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
