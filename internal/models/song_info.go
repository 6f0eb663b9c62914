package models

// SongInfo wraps a song with resolved blob metadata for presentation.
// It is recomputed per request and never persisted.
type SongInfo struct {
	Song *Song

	MP3   *Blob
	Ogg   *Blob
	Pages []*Blob

	// IsExample marks the example record itself; LikeExample marks a song
	// whose audio content digests match the example's; Deleted marks a
	// song whose referenced blobs no longer resolve.
	IsExample   bool
	LikeExample bool
	Deleted     bool

	TotalSize int64
	NPages    int
}

// NewSongInfo resolves song blob metadata against an optional example.
// The lookup function returns nil (without error) for unresolvable ids.
func NewSongInfo(song *Song, example *SongInfo, lookup func(id string) *Blob) *SongInfo {
	info := &SongInfo{Song: song}
	if song == nil {
		info.Deleted = true
		return info
	}

	info.MP3 = lookup(song.MP3BlobID)
	info.Ogg = lookup(song.OggBlobID)

	if example != nil {
		info.IsExample = song.Name != "" && example.Song != nil && song.Name == example.Song.Name
		if info.MP3 != nil && info.Ogg != nil && example.MP3 != nil && example.Ogg != nil {
			info.LikeExample = info.MP3.SHA256 == example.MP3.SHA256 &&
				info.Ogg.SHA256 == example.Ogg.SHA256
		}
	}

	if info.MP3 == nil || info.Ogg == nil {
		info.Deleted = true
		return info
	}

	info.TotalSize = info.MP3.SizeBytes + info.Ogg.SizeBytes
	for _, id := range song.PageList {
		page := lookup(id)
		if page == nil {
			info.Deleted = true
			continue
		}
		info.Pages = append(info.Pages, page)
		info.TotalSize += page.SizeBytes
	}
	info.NPages = len(info.Pages)
	return info
}
