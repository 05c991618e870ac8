package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStores(t *testing.T) map[string]BlobStore {
	t.Helper()
	local, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating local store: %v", err)
	}
	return map[string]BlobStore{
		"memory": NewInMemoryBlobStore(),
		"local":  local,
	}
}

func TestPutOpenDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "patient-1/att-1/xray.png"

			n, err := store.Put(ctx, key, strings.NewReader("image-bytes"))
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if n != int64(len("image-bytes")) {
				t.Errorf("Put size = %d, want %d", n, len("image-bytes"))
			}

			rc, err := store.Open(ctx, key)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("reading blob: %v", err)
			}
			if string(data) != "image-bytes" {
				t.Errorf("content = %q, want image-bytes", data)
			}

			if err := store.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Open(ctx, key); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("Open after delete = %v, want ErrBlobNotFound", err)
			}
		})
	}
}

func TestOpenMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Open(context.Background(), "no/such/key"); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("Open = %v, want ErrBlobNotFound", err)
			}
		})
	}
}

func TestDeleteMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Delete(context.Background(), "no/such/key"); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("Delete = %v, want ErrBlobNotFound", err)
			}
		})
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	bad := []string{
		"",
		"/etc/passwd",
		"../escape",
		"a/../../escape",
		"a/./b",
		"a//b",
		"a\\b",
	}
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range bad {
				if _, err := store.Put(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Put(%q) = %v, want ErrInvalidKey", key, err)
				}
				if _, err := store.Open(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Open(%q) = %v, want ErrInvalidKey", key, err)
				}
				if err := store.Delete(context.Background(), key); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Delete(%q) = %v, want ErrInvalidKey", key, err)
				}
			}
		})
	}
}

func TestLocalWritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalBlobStore(root)
	if err != nil {
		t.Fatalf("creating local store: %v", err)
	}

	key := "p1/a1/report.pdf"
	if _, err := store.Put(context.Background(), key, strings.NewReader("pdf")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := filepath.Join(root, "p1", "a1", "report.pdf")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}
