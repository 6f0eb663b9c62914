package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestCAS(t *testing.T) *LocalCAS {
	t.Helper()
	cas, err := NewLocalCAS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return cas
}

func TestPutAndOpen(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	result, err := cas.Put(ctx, strings.NewReader("hello blob"))
	if err != nil {
		t.Fatal(err)
	}
	if result.SizeBytes != int64(len("hello blob")) {
		t.Errorf("expected size %d, got %d", len("hello blob"), result.SizeBytes)
	}
	if len(result.SHA256) != 64 {
		t.Errorf("expected hex digest, got %q", result.SHA256)
	}
	wantKey := "sha256/" + result.SHA256[0:2] + "/" + result.SHA256[2:4] + "/" + result.SHA256
	if result.BlobKey != wantKey {
		t.Errorf("expected key %q, got %q", wantKey, result.BlobKey)
	}

	rc, err := cas.Open(ctx, result.BlobKey)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "hello blob" {
		t.Errorf("expected content round trip, got %q", raw)
	}
}

func TestPutDeduplicates(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	first, err := cas.Put(ctx, strings.NewReader("same content"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := cas.Put(ctx, strings.NewReader("same content"))
	if err != nil {
		t.Fatal(err)
	}
	if first.BlobKey != second.BlobKey {
		t.Errorf("expected identical keys, got %q and %q", first.BlobKey, second.BlobKey)
	}

	// The tmp directory must not accumulate leftovers.
	entries, err := os.ReadDir(filepath.Join(cas.root, "tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty tmp dir, found %d entries", len(entries))
	}
}

func TestExistsAndDelete(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	result, err := cas.Put(ctx, strings.NewReader("ephemeral"))
	if err != nil {
		t.Fatal(err)
	}

	ok, err := cas.Exists(ctx, result.BlobKey)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected content to exist after put")
	}

	if err := cas.Delete(ctx, result.BlobKey); err != nil {
		t.Fatal(err)
	}
	ok, err = cas.Exists(ctx, result.BlobKey)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected content gone after delete")
	}

	// Deleting again is a no-op.
	if err := cas.Delete(ctx, result.BlobKey); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

func TestOpenUnknownKey(t *testing.T) {
	cas := newTestCAS(t)
	_, err := cas.Open(context.Background(), "sha256/ab/cd/"+strings.Repeat("ab", 32))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestRejectsUnsafeKeys(t *testing.T) {
	cas := newTestCAS(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../secret", "sha256/../../escape"} {
		if _, err := cas.Open(ctx, key); err == nil {
			t.Errorf("expected open to reject key %q", key)
		}
		if err := cas.Delete(ctx, key); err == nil {
			t.Errorf("expected delete to reject key %q", key)
		}
	}
}

func TestPutCanceledContext(t *testing.T) {
	cas := newTestCAS(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cas.Put(ctx, strings.NewReader("x")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
