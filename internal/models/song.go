package models

import (
	"fmt"
	"strings"
	"time"
)

// ExampleName is the well-known name of the singleton example song.
const ExampleName = "EXAMPLE"

// Song ties together audio blobs, ordered page images, and the annotation
// document for one augmented score.
type Song struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	MP3BlobID string    `json:"mp3_blob_id"`
	OggBlobID string    `json:"ogg_blob_id"`
	MEIBlobID string    `json:"mei_blob_id,omitempty"`
	Data      string    `json:"data"`
	PageList  []string  `json:"page_list"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExample reports whether the song is the protected example record.
func (s *Song) IsExample() bool {
	return s != nil && s.Name == ExampleName
}

// BlobIDs returns every blob id the song references: audio, notation
// source, then pages in reading order.
func (s *Song) BlobIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.PageList)+3)
	ids = append(ids, s.MP3BlobID, s.OggBlobID)
	if s.MEIBlobID != "" {
		ids = append(ids, s.MEIBlobID)
	}
	ids = append(ids, s.PageList...)
	return ids
}

// Validate checks required blob references at creation time.
func (s *Song) Validate() error {
	if s == nil {
		return fmt.Errorf("song is required")
	}
	if strings.TrimSpace(s.MP3BlobID) == "" {
		return fmt.Errorf("mp3 blob reference is required")
	}
	if strings.TrimSpace(s.OggBlobID) == "" {
		return fmt.Errorf("ogg blob reference is required")
	}
	if len(s.PageList) == 0 {
		return fmt.Errorf("at least one page is required")
	}
	for i, id := range s.PageList {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("page %d has an empty blob reference", i)
		}
	}
	return nil
}
