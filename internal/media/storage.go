// Package media validates uploaded images and keeps them on disk.
package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage persists uploaded files under slash-separated relative names.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// LocalStorage writes files below Root and serves them from BaseURL.
type LocalStorage struct {
	Root    string
	BaseURL string
}

// NewLocalStorage returns a disk-backed Storage rooted at root.
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{Root: root, BaseURL: "/media/"}
}

func (s *LocalStorage) path(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes data atomically through a temp file in the same directory.
func (s *LocalStorage) Save(_ context.Context, name string, data []byte) error {
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

// Delete removes name; a missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if name == "" {
		return nil
	}
	full, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public path of name, or "" for an empty name.
func (s *LocalStorage) URL(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + strings.TrimPrefix(name, "/")
}
