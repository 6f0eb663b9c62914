package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates
var templatesFS embed.FS

// templateSet holds the parsed page templates plus the standalone
// archive template rendered into export bundles.
type templateSet struct {
	pages   *template.Template
	archive *template.Template
}

func mustParseTemplates() *templateSet {
	pages := template.Must(template.ParseFS(templatesFS, "templates/*.html"))
	archive := template.Must(template.ParseFS(templatesFS, "templates/export/archive.html"))
	return &templateSet{pages: pages, archive: archive}
}

func (t *templateSet) renderPage(name string, view any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.pages.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (t *templateSet) renderArchive(view archiveView) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.archive.ExecuteTemplate(&buf, "archive.html", view); err != nil {
		return nil, fmt.Errorf("render archive: %w", err)
	}
	return buf.Bytes(), nil
}

// render executes a page template; template failures become masked
// internal errors.
func (s *Server) render(w http.ResponseWriter, status int, name string, view any) {
	body, err := s.templates.renderPage(name, view)
	if err != nil {
		s.writeError(w, nil, internalError(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
