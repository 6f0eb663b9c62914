// Package server implements the augnotes admin web application: song
// upload, the two annotation edit steps, listing, deletion, and static
// bundle export.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"augnotes/internal/blobstore"
	"augnotes/internal/config"
	"augnotes/internal/store"
)

const (
	allowRemoteEnvKey = "AUGNOTES_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 120 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps the HTTP handlers for the augnotes admin app.
type Server struct {
	addr     string
	store    store.SongStore
	cfg      *config.Config
	logger   *slog.Logger
	songs    *SongService
	examples *ExampleProvisioner
	auth     *AuthService

	loginLimiter *loginRateLimiter
	templates    *templateSet
}

// New creates a new server instance. The concrete store backs both song
// and admin-account persistence.
func New(addr string, st *store.Store, blobs blobstore.Store, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}

	songs := NewSongService(st, blobs)
	return &Server{
		addr:         addr,
		store:        st,
		cfg:          cfg,
		logger:       logger,
		songs:        songs,
		examples:     NewExampleProvisioner(st, songs),
		auth:         NewAuthService(st, cfg, time.Duration(cfg.SessionTTLHours)*time.Hour),
		loginLimiter: newLoginRateLimiter(),
		templates:    mustParseTemplates(),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return server.ListenAndServe()
}

// ListenAddr converts a base URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}
	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
