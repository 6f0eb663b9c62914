package store

import (
	"context"
	"testing"

	"augnotes/internal/models"
)

func testBlob(id, key string) *models.Blob {
	return &models.Blob{
		ID:        id,
		BlobKey:   key,
		SHA256:    "deadbeef",
		SizeBytes: 42,
		Filename:  "page_01.jpg",
		MediaType: "image/jpeg",
	}
}

func TestCreateAndGetBlob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateBlob(ctx, testBlob("b1", "sha256/de/ad/deadbeef")); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetBlob(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected blob row")
	}
	if got.BlobKey != "sha256/de/ad/deadbeef" || got.Filename != "page_01.jpg" || got.MediaType != "image/jpeg" {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetBlobUnknown(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	got, err := st.GetBlob(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}

	got, err = st.GetBlob(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for empty id, got %+v", got)
	}
}

func TestGetBlobsOmitsUnknown(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateBlob(ctx, testBlob("b1", "key-1")); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateBlob(ctx, testBlob("b2", "key-2")); err != nil {
		t.Fatal(err)
	}

	blobs, err := st.GetBlobs(ctx, []string{"b1", "b2", "b1", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 resolved blobs, got %d", len(blobs))
	}
	if blobs["b1"] == nil || blobs["b2"] == nil {
		t.Errorf("expected both known ids resolved: %v", blobs)
	}
}

func TestCountBlobsByKeyAndDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateBlob(ctx, testBlob("b1", "shared-key")); err != nil {
		t.Fatal(err)
	}
	if err := st.CreateBlob(ctx, testBlob("b2", "shared-key")); err != nil {
		t.Fatal(err)
	}

	count, err := st.CountBlobsByKey(ctx, "shared-key")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows for shared key, got %d", count)
	}

	if err := st.DeleteBlob(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	count, err = st.CountBlobsByKey(ctx, "shared-key")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after delete, got %d", count)
	}

	// Deleting an unknown row is a no-op.
	if err := st.DeleteBlob(ctx, "missing"); err != nil {
		t.Fatal(err)
	}
}
