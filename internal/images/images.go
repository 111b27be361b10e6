// Package images stores person photos on disk under generated
// filenames. Only the owner's display photo ever lands here; password
// and attempt photos are fingerprinted in memory and discarded.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a directory-backed image store.
type Store struct {
	dir string
}

// New creates the storage directory if needed and returns a Store for it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the image under a fresh UUID filename, preserving the
// extension of the uploaded name, and returns the filename.
func (s *Store) Save(data []byte, uploadName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(uploadName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".jpg"
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// Path resolves a stored filename to its on-disk path. Names that try
// to escape the storage directory are rejected.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid image name %q", name)
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	return path, nil
}

// Remove deletes a stored image. Removing a name that is already gone
// is not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}
