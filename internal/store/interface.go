package store

import (
	"context"
	"time"

	"augnotes/internal/models"
)

// SongStore abstracts song and blob metadata persistence.
type SongStore interface {
	CreateSong(ctx context.Context, song *models.Song) error
	CreateNamedSongIfAbsent(ctx context.Context, name string, song *models.Song) (*models.Song, bool, error)
	GetSong(ctx context.Context, id int64) (*models.Song, error)
	GetSongByName(ctx context.Context, name string) (*models.Song, error)
	UpdateSongData(ctx context.Context, id int64, data string) error
	ListSongs(ctx context.Context, offset, limit int) ([]models.Song, error)
	CountSongsFrom(ctx context.Context, offset, probe int) (int, bool, error)
	DeleteSong(ctx context.Context, id int64) error

	CreateBlob(ctx context.Context, blob *models.Blob) error
	GetBlob(ctx context.Context, id string) (*models.Blob, error)
	GetBlobs(ctx context.Context, ids []string) (map[string]*models.Blob, error)
	DeleteBlob(ctx context.Context, id string) error
	CountBlobsByKey(ctx context.Context, blobKey string) (int, error)
}

// AuthStore abstracts admin account and session persistence.
type AuthStore interface {
	CountEnabledUsers(ctx context.Context) (int, error)
	CreateAdminUser(ctx context.Context, email, passwordHash string, now time.Time) (*AuthUser, error)
	GetUserByEmail(ctx context.Context, email string) (*AuthUser, error)
	GetUserByID(ctx context.Context, id string) (*AuthUser, error)
	ListUsers(ctx context.Context) ([]AuthUser, error)
	SetUserDisabled(ctx context.Context, email string, disabled bool, now time.Time) error
	CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error
	GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (*AuthUser, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

var (
	_ SongStore = (*Store)(nil)
	_ AuthStore = (*Store)(nil)
)
