package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"augnotes/internal/models"
)

// seedSongs inserts n song rows directly, bypassing ingest. Their blob
// references do not resolve, so the listing marks them deleted, which is
// fine for pagination checks.
func seedSongs(t *testing.T, s *Server, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		song := &models.Song{
			MP3BlobID: "seed-mp3",
			OggBlobID: "seed-ogg",
			Data:      `{"pages":[{"measure_ends":[],"measure_bounds":[]}]}`,
			PageList:  []string{"seed-page"},
		}
		if err := s.store.CreateSong(ctx, song); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListPagination(t *testing.T) {
	s, _ := newTestServer(t)
	seedSongs(t, s, 25)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()

	if got := strings.Count(body, `href="/box_edit/`); got != 20 {
		t.Errorf("expected 20 rows on page 1, counted %d", got)
	}
	if !strings.Contains(body, "25 songs total.") {
		t.Errorf("expected exact total, body:\n%s", body)
	}

	w = do(t, s, httptest.NewRequest(http.MethodGet, "/songs?page=2&nitems=20", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.Count(w.Body.String(), `href="/box_edit/`); got != 5 {
		t.Errorf("expected 5 rows on page 2, counted %d", got)
	}
}

func TestListCustomPageSize(t *testing.T) {
	s, _ := newTestServer(t)
	seedSongs(t, s, 7)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs?page=2&nitems=3", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.Count(w.Body.String(), `href="/box_edit/`); got != 3 {
		t.Errorf("expected 3 rows, counted %d", got)
	}
}

func TestListIgnoresBadQueryParams(t *testing.T) {
	s, _ := newTestServer(t)
	seedSongs(t, s, 2)

	for _, query := range []string{"?page=-1", "?page=abc", "?nitems=0", "?nitems=-5"} {
		w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs"+query, nil))
		if w.Code != http.StatusOK {
			t.Errorf("query %q: expected 200, got %d", query, w.Code)
		}
	}
}

func TestListEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "0 songs total.") {
		t.Errorf("expected zero total, body:\n%s", body)
	}
	// The example section is always present.
	if !strings.Contains(body, "/example_with_data") {
		t.Error("expected example links")
	}
}

func TestListShowsBatchDeleteOutcome(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs?deleted=2&failed=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Deleted 2 song(s), 1 failed.") {
		t.Errorf("expected outcome flash, body:\n%s", w.Body.String())
	}
}

func TestListMarksUnresolvableSongs(t *testing.T) {
	s, _ := newTestServer(t)
	seedSongs(t, s, 1)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs", nil))
	if !strings.Contains(w.Body.String(), "deleted") {
		t.Error("expected unresolvable song flagged")
	}
}

func TestListProvisionsExample(t *testing.T) {
	s, st := newTestServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/songs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	example, err := st.GetSongByName(context.Background(), models.ExampleName)
	if err != nil {
		t.Fatalf("expected example provisioned by listing, got %v", err)
	}
	if !strings.Contains(w.Body.String(), fmt.Sprintf("%d pages", len(example.PageList))) {
		t.Errorf("expected example summary, body:\n%s", w.Body.String())
	}
}
