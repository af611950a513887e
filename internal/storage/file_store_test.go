package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://127.0.0.1:8000/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestLocalStore_PutAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rel, err := s.Put(ctx, TaskUploadsDir, "Screenshot.PNG", bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(rel, TaskUploadsDir+"/") || !strings.HasSuffix(rel, ".png") {
		t.Errorf("unexpected relative path %s", rel)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(rel)))
	if err != nil || string(data) != "img" {
		t.Fatalf("expected stored content, got %q (%v)", data, err)
	}
	if !s.Exists(ctx, rel) {
		t.Error("expected blob to exist")
	}

	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists(ctx, rel) {
		t.Error("expected blob to be gone")
	}
	if err := s.Delete(ctx, rel); err != nil {
		t.Errorf("deleting a missing blob should succeed, got %v", err)
	}
}

func TestLocalStore_UniqueNames(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a, _ := s.Put(ctx, TaskUploadsDir, "a.png", bytes.NewReader(nil))
	b, _ := s.Put(ctx, TaskUploadsDir, "a.png", bytes.NewReader(nil))
	if a == b {
		t.Errorf("expected distinct names, both were %s", a)
	}
}

func TestLocalStore_URLRoundTrip(t *testing.T) {
	s := newStore(t)

	url := s.URL("uploads/tasks/x.png")
	if url != "http://127.0.0.1:8000/storage/uploads/tasks/x.png" {
		t.Errorf("unexpected url %s", url)
	}

	rel, ok := s.PathFromURL(url)
	if !ok || rel != "uploads/tasks/x.png" {
		t.Errorf("expected round trip, got %q %v", rel, ok)
	}

	rel, ok = s.PathFromURL("https://other-host/storage/uploads/tasks/y.png")
	if !ok || rel != "uploads/tasks/y.png" {
		t.Errorf("expected host-independent path, got %q %v", rel, ok)
	}

	if _, ok := s.PathFromURL("https://example.com/elsewhere.png"); ok {
		t.Error("expected foreign url to be rejected")
	}
}

func TestLocalStore_RejectsEscape(t *testing.T) {
	s := newStore(t)

	outside := filepath.Join(filepath.Dir(s.Root()), "outside.txt")
	if err := os.WriteFile(outside, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := s.Delete(context.Background(), "../outside.txt")
	if err != nil && !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Error("file outside the root must not be removed")
	}

	if err := s.Delete(context.Background(), ""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected root itself to be rejected, got %v", err)
	}
}

func TestLocalStore_Move(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rel, err := s.Put(ctx, TaskUploadsDir, "a.png", bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	trashed := TrashDir + "/" + rel
	if err := s.Move(ctx, rel, trashed); err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.Exists(ctx, rel) || !s.Exists(ctx, trashed) {
		t.Fatal("expected blob to move into the trash")
	}

	if err := s.Move(ctx, trashed, rel); err != nil {
		t.Fatalf("move back: %v", err)
	}
	if !s.Exists(ctx, rel) {
		t.Error("expected blob to be restored")
	}

	if err := s.Move(ctx, "uploads/tasks/missing.png", trashed); err != nil {
		t.Errorf("moving a missing blob should succeed, got %v", err)
	}
	if err := s.Move(ctx, rel, ""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}
