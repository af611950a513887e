// Package storage keeps task attachments on the public disk and maps them
// to the URLs they are served from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path the storage root is served under.
const PublicPrefix = "/storage"

// TaskUploadsDir is where task attachments are written, relative to the root.
const TaskUploadsDir = "uploads/tasks"

// TrashDir holds attachments of tasks whose deletion has not committed yet.
const TrashDir = ".trash"

var ErrInvalidPath = errors.New("path escapes storage root")

type FileStore interface {
	Put(ctx context.Context, dir, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, relPath string) error
	Move(ctx context.Context, from, to string) error
	Exists(ctx context.Context, relPath string) bool
	URL(relPath string) string
	PathFromURL(rawURL string) (string, bool)
}

type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

// Put writes r under dir with a fresh random name that keeps the
// extension of originalName, and returns the stored relative path.
func (s *LocalStore) Put(ctx context.Context, dir, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(originalName)))
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", err
	}

	return rel, nil
}

// Delete removes the blob at relPath. A blob that is already gone is not an
// error.
func (s *LocalStore) Delete(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Move renames the blob at from to to, creating parent directories. A
// missing source is not an error.
func (s *LocalStore) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := s.resolve(from)
	if err != nil {
		return err
	}
	dst, err := s.resolve(to)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, relPath string) bool {
	full, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

func (s *LocalStore) URL(relPath string) string {
	return s.baseURL + PublicPrefix + "/" + strings.TrimLeft(relPath, "/")
}

// PathFromURL recovers the relative path from a URL produced by URL. Only
// the URL path is considered, so a change of host does not orphan files.
func (s *LocalStore) PathFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	marker := PublicPrefix + "/"
	idx := strings.Index(u.Path, marker)
	if idx < 0 {
		return "", false
	}

	rel := u.Path[idx+len(marker):]
	if rel == "" {
		return "", false
	}
	return rel, true
}

func (s *LocalStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash("/" + relPath))
	full := filepath.Join(s.root, cleaned)
	if full == s.root || !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}
