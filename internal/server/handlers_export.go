package server

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
)

//go:embed exportassets
var exportAssetsFS embed.FS

const exportFilename = "your_website.zip"

// exportStaticAssets maps bundled asset files to their archive paths.
var exportStaticAssets = map[string]string{
	"exportassets/augnotes.js":        "export/static/js/augnotes.js",
	"exportassets/augnotesui.js":      "export/static/js/augnotesui.js",
	"exportassets/jquery.js":          "export/static/js/jquery.js",
	"exportassets/export.css":         "export/static/css/export.css",
	"exportassets/augnotes_badge.png": "export/static/img/augnotes_badge.png",
}

type archiveView struct {
	DataJSON template.JS
	MP3URL   string
	OggURL   string
	PageURLs []string
}

// handleZip assembles the self-contained static bundle for one song and
// streams it as a zip download.
func (s *Server) handleZip(w http.ResponseWriter, r *http.Request) {
	song, ok := s.songOr404(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var buf bytes.Buffer
	z := zip.NewWriter(&buf)

	writeBlob := func(entry, blobID string) error {
		blob, content, err := s.songs.OpenBlob(ctx, blobID)
		if err != nil {
			return err
		}
		defer content.Close()
		f, err := z.Create(entry)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, content); err != nil {
			return fmt.Errorf("write %s (blob %s): %w", entry, blob.ID, err)
		}
		return nil
	}

	if err := writeBlob("export/data/music.mp3", song.MP3BlobID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := writeBlob("export/data/music.ogg", song.OggBlobID); err != nil {
		s.writeError(w, r, err)
		return
	}

	for src, entry := range exportStaticAssets {
		raw, err := fs.ReadFile(exportAssetsFS, src)
		if err != nil {
			s.writeError(w, r, internalError(fmt.Errorf("bundled asset %s: %w", src, err)))
			return
		}
		f, err := z.Create(entry)
		if err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
		if _, err := f.Write(raw); err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
	}

	pageURLs := make([]string, 0, len(song.PageList))
	usedNames := map[string]int{}
	for i, blobID := range song.PageList {
		blob, err := s.store.GetBlob(ctx, blobID)
		if err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
		if blob == nil {
			s.writeError(w, r, notFound(fmt.Errorf("page %d blob missing", i)))
			return
		}
		name := exportPageName(blob.Filename, i, usedNames)
		if err := writeBlob("export/data/pages/"+name, blobID); err != nil {
			s.writeError(w, r, err)
			return
		}
		pageURLs = append(pageURLs, "./data/pages/"+name)
	}

	page, err := s.templates.renderArchive(archiveView{
		DataJSON: template.JS(song.Data),
		MP3URL:   "./data/music.mp3",
		OggURL:   "./data/music.ogg",
		PageURLs: pageURLs,
	})
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	f, err := z.Create("export/archive.html")
	if err != nil {
		s.writeError(w, r, internalError(err))
		return
	}
	if _, err := f.Write(page); err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	if err := z.Close(); err != nil {
		s.writeError(w, r, internalError(err))
		return
	}

	w.Header().Set("Content-Type", "multipart/x-zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Warn("stream zip", "song_id", song.ID, "error", err)
	}
}

// exportPageName picks a stable archive filename for a page image,
// disambiguating repeated upload filenames.
func exportPageName(filename string, index int, used map[string]int) string {
	name := path.Base(filename)
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("page_%03d.jpg", index+1)
	}
	if n := used[name]; n > 0 {
		used[name] = n + 1
		ext := path.Ext(name)
		name = fmt.Sprintf("%s_%d%s", name[:len(name)-len(ext)], n+1, ext)
	} else {
		used[name] = 1
	}
	return name
}
