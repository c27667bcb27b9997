package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "outputs/job-1/tiktok.mp4", []byte("payload"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "outputs/job-1/tiktok.mp4" {
		t.Fatalf("key = %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("data = %q", data)
	}
}

func TestSanitizeKeyBlocksTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "a/../../escape.txt", "", "   "} {
		if _, err := store.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) accepted a bad key", key)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(base), "escape.txt")); !os.IsNotExist(err) {
		t.Fatal("traversal escaped the storage root")
	}
}

func TestWriteNormalizesKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "./assembled//job.mp4", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "assembled/job.mp4" {
		t.Fatalf("key = %q, want normalized", key)
	}
}
