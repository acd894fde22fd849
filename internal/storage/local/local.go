package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Storage is the directory a backup file is written into.
type Storage struct {
	base string
}

func New(basePath string) *Storage {
	return &Storage{base: basePath}
}

// ForFile splits a destination file path into its directory storage and file name.
func ForFile(dest string) (*Storage, string) {
	return New(filepath.Dir(dest)), filepath.Base(dest)
}

func (s *Storage) BasePath() string { return s.base }

func (s *Storage) Path(name string) string {
	return filepath.Join(s.base, filepath.FromSlash(name))
}

// EnsureDir creates the base directory and any missing parents.
func (s *Storage) EnsureDir() error {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return nil
}

// Remove deletes name if present and reports whether something was removed.
func (s *Storage) Remove(name string) (bool, error) {
	p := s.Path(name)
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
	if err := os.Remove(p); err != nil {
		return false, fmt.Errorf("delete %s: %w", p, err)
	}
	return true, nil
}

// Create opens name for writing, truncating anything already there.
func (s *Storage) Create(name string, perm fs.FileMode) (*os.File, error) {
	f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return f, nil
}

// SetMetadata applies permission bits and access/modification times to name.
func (s *Storage) SetMetadata(name string, perm fs.FileMode, mtime time.Time) error {
	p := s.Path(name)
	if err := os.Chmod(p, perm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	return nil
}

func (s *Storage) Size(name string) (int64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}
	return info.Size(), nil
}
