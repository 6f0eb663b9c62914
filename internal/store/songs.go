package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"augnotes/internal/models"
)

const songColumns = "id, name, mp3_blob_id, ogg_blob_id, mei_blob_id, data, created_at, updated_at"

// ErrSongNotFound is returned when a song id or name does not resolve.
var ErrSongNotFound = errors.New("song not found")

// CreateSong inserts a song with its ordered page list and returns the
// assigned id.
func (s *Store) CreateSong(ctx context.Context, song *models.Song) (err error) {
	if err := song.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if song.CreatedAt.IsZero() {
		song.CreatedAt = now
	}
	song.UpdatedAt = song.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO songs (name, mp3_blob_id, ogg_blob_id, mei_blob_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		nullIfEmpty(song.Name),
		song.MP3BlobID,
		song.OggBlobID,
		nullIfEmpty(song.MEIBlobID),
		song.Data,
		formatTime(song.CreatedAt),
		formatTime(song.UpdatedAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	song.ID = id

	if err = insertPages(ctx, tx, id, song.PageList); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateNamedSongIfAbsent atomically claims name for a clone of song. It
// returns the stored record, which is the existing one when another
// request provisioned the name first.
func (s *Store) CreateNamedSongIfAbsent(ctx context.Context, name string, song *models.Song) (created *models.Song, won bool, err error) {
	if name == "" {
		return nil, false, fmt.Errorf("name is required")
	}
	if err := song.Validate(); err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO songs (name, mp3_blob_id, ogg_blob_id, mei_blob_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`,
		name,
		song.MP3BlobID,
		song.OggBlobID,
		nullIfEmpty(song.MEIBlobID),
		song.Data,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	if affected > 0 {
		id, idErr := res.LastInsertId()
		if idErr != nil {
			err = idErr
			return nil, false, err
		}
		if err = insertPages(ctx, tx, id, song.PageList); err != nil {
			return nil, false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, false, err
	}

	stored, err := s.GetSongByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return stored, affected > 0, nil
}

// GetSong returns a song by id with its page list.
func (s *Store) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id)
	return s.scanSongWithPages(ctx, row)
}

// GetSongByName returns a song by its well-known name.
func (s *Store) GetSongByName(ctx context.Context, name string) (*models.Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE name = ?`, name)
	return s.scanSongWithPages(ctx, row)
}

// UpdateSongData overwrites the annotation document of one song.
func (s *Store) UpdateSongData(ctx context.Context, id int64, data string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE songs SET data = ?, updated_at = ? WHERE id = ?
	`, data, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// ListSongs returns unnamed songs ordered by id, newest first.
func (s *Store) ListSongs(ctx context.Context, offset, limit int) ([]models.Song, error) {
	if limit <= 0 {
		return []models.Song{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE name IS NULL
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range songs {
		pages, err := s.listPages(ctx, songs[i].ID)
		if err != nil {
			return nil, err
		}
		songs[i].PageList = pages
	}
	return songs, nil
}

// CountSongsFrom counts unnamed songs past offset, probing at most cap
// rows. It returns the probed count and whether the cap was hit, in which
// case the true total is unknown.
func (s *Store) CountSongsFrom(ctx context.Context, offset, probe int) (int, bool, error) {
	if probe <= 0 {
		return 0, false, fmt.Errorf("probe cap must be positive")
	}
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM songs WHERE name IS NULL ORDER BY id DESC LIMIT ? OFFSET ?
		)
	`, probe, offset).Scan(&count)
	if err != nil {
		return 0, false, err
	}
	return count, count == probe, nil
}

// DeleteSong removes one song row; pages cascade.
func (s *Store) DeleteSong(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

func insertPages(ctx context.Context, tx *sql.Tx, songID int64, pages []string) error {
	for i, blobID := range pages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO song_pages (song_id, position, blob_id) VALUES (?, ?, ?)
		`, songID, i, blobID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) listPages(ctx context.Context, songID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT blob_id FROM song_pages WHERE song_id = ? ORDER BY position ASC
	`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []string{}
	for rows.Next() {
		var blobID string
		if err := rows.Scan(&blobID); err != nil {
			return nil, err
		}
		pages = append(pages, blobID)
	}
	return pages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song      models.Song
		name      sql.NullString
		meiBlobID sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&song.ID, &name, &song.MP3BlobID, &song.OggBlobID, &meiBlobID, &song.Data, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	song.Name = name.String
	song.MEIBlobID = meiBlobID.String
	if song.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if song.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &song, nil
}

func (s *Store) scanSongWithPages(ctx context.Context, row rowScanner) (*models.Song, error) {
	song, err := scanSong(row)
	if err != nil {
		return nil, err
	}
	pages, err := s.listPages(ctx, song.ID)
	if err != nil {
		return nil, err
	}
	song.PageList = pages
	return song, nil
}
