package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"augnotes/internal/models"
	"augnotes/internal/store"
)

func postForm(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, s, req)
}

// blobKeys resolves the content keys behind a song's blob references.
func blobKeys(t *testing.T, st *store.Store, ids []string) []string {
	t.Helper()
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		blob, err := st.GetBlob(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if blob == nil {
			t.Fatalf("expected blob row for %s", id)
		}
		keys = append(keys, blob.BlobKey)
	}
	return keys
}

func TestDeleteRemovesSongAndBlobs(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	song := uploadSong(t, s, st, defaultUploadFiles())

	ids := append([]string{song.MP3BlobID, song.OggBlobID}, song.PageList...)
	keys := blobKeys(t, st, ids)

	w := do(t, s, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/delete/%d", song.ID), nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/songs" {
		t.Errorf("expected redirect to listing, got %q", loc)
	}

	if _, err := st.GetSong(ctx, song.ID); err != store.ErrSongNotFound {
		t.Fatalf("expected song gone, got %v", err)
	}
	for _, id := range ids {
		blob, err := st.GetBlob(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if blob != nil {
			t.Errorf("expected blob row %s removed", id)
		}
	}
	for _, key := range keys {
		ok, err := s.songs.blobs.Exists(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("expected content %s removed", key)
		}
	}
}

func TestDeleteKeepsSharedContent(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	// Two uploads with identical bytes share stored content but not rows.
	first := uploadSong(t, s, st, defaultUploadFiles())
	second := uploadSong(t, s, st, defaultUploadFiles())
	if first.MP3BlobID == second.MP3BlobID {
		t.Fatal("expected independent blob rows per upload")
	}
	keys := blobKeys(t, st, []string{second.MP3BlobID, second.OggBlobID})

	w := do(t, s, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/delete/%d", first.ID), nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	// The surviving song still resolves fully.
	for _, key := range keys {
		ok, err := s.songs.blobs.Exists(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("expected shared content %s to survive", key)
		}
	}
	stored, err := st.GetSong(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	info, err := s.songs.Info(ctx, stored, nil)
	if err != nil {
		t.Fatal(err)
	}
	if info.Deleted {
		t.Error("expected surviving song intact")
	}
}

func TestDeleteExampleForbidden(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, s, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/delete/%d", example.ID), nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	if _, err := s.examples.GetOrCreate(ctx); err != nil {
		t.Fatalf("expected example to survive, got %v", err)
	}
}

func TestDeleteCloneKeepsExampleBlobs(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	w := do(t, s, httptest.NewRequest(http.MethodGet, "/example", nil))
	cloneID := redirectSongID(t, w, "/box_edit/")

	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The clone references the example's own blob rows; deleting it must
	// not tear the example down.
	w = do(t, s, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/delete/%d", cloneID), nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	info, err := s.songs.Info(ctx, example, nil)
	if err != nil {
		t.Fatal(err)
	}
	if info.Deleted {
		t.Error("expected example blobs untouched after clone delete")
	}
}

func TestDeleteUnknownSong(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, httptest.NewRequest(http.MethodPost, "/delete/999", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteManyReportsOutcomes(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	first := uploadSong(t, s, st, defaultUploadFiles())
	second := uploadSong(t, s, st, defaultUploadFiles())
	example, err := s.examples.GetOrCreate(ctx)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{"ids": {
		fmt.Sprint(first.ID),
		fmt.Sprint(second.ID),
		"not-a-number",
		fmt.Sprint(example.ID),
	}}
	w := postForm(t, s, "/delete_many", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/songs?deleted=2&failed=2" {
		t.Errorf("expected per-id outcomes in redirect, got %q", loc)
	}

	if _, err := st.GetSong(ctx, first.ID); err != store.ErrSongNotFound {
		t.Errorf("expected first song deleted, got %v", err)
	}
	if _, err := st.GetSong(ctx, second.ID); err != store.ErrSongNotFound {
		t.Errorf("expected second song deleted, got %v", err)
	}
	if _, err := st.GetSongByName(ctx, models.ExampleName); err != nil {
		t.Errorf("expected example to survive, got %v", err)
	}
}

func TestDeleteManyEmptySelection(t *testing.T) {
	s, _ := newTestServer(t)

	w := postForm(t, s, "/delete_many", url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/songs?deleted=0&failed=0" {
		t.Errorf("unexpected redirect %q", loc)
	}
}
