package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for names that would resolve outside the store.
var ErrOutsideRoot = errors.New("artifact path escapes storage root")

// ArtifactStore keeps generated download artifacts (failure reports, marksheet
// PDFs) on local disk under a single root directory.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates the root directory when missing.
func NewArtifactStore(root string) (*ArtifactStore, error) {
	if root == "" {
		root = "./downloads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &ArtifactStore{root: root}, nil
}

// Save writes data to name, relative to the root. The file is written to a
// temporary sibling first so readers never see a partial artifact.
func (s *ArtifactStore) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return filepath.ToSlash(filepath.Clean(name)), nil
}

// Open returns a read handle and the artifact size.
func (s *ArtifactStore) Open(name string) (*os.File, int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open artifact: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat artifact: %w", err)
	}
	return file, info.Size(), nil
}

// Remove deletes an artifact; a missing file is not an error.
func (s *ArtifactStore) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Sweep removes artifacts last modified more than ttl before now and returns
// their names relative to the root.
func (s *ArtifactStore) Sweep(ttl time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-ttl)
	removed := make([]string, 0)
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep artifacts: %w", err)
	}
	return removed, nil
}

func (s *ArtifactStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return filepath.Join(s.root, clean), nil
}
