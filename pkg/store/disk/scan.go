package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"spmhost/pkg/log"
	"spmhost/pkg/store"
)

// Scan walks dir recursively and returns every visible regular file.
// Hidden entries (in-flight uploads, dot directories) are skipped, and so are
// entries whose metadata cannot be read. A missing dir yields no artifacts.
// Only a failure to read dir itself is returned as an error.
// A symlinked dir is resolved first since WalkDir does not follow the root.
func Scan(dir string) ([]store.ArtifactInfo, error) {
	artifacts := make([]store.ArtifactInfo, 0)

	root, err := filepath.EvalSymlinks(filepath.Clean(dir))
	if errors.Is(err, os.ErrNotExist) {
		return artifacts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			log.Warn().Err(walkErr).Str("path", path).Msg("Skipping unreadable artifact entry")
			return nil
		}

		if path == root {
			return nil
		}

		if isHidden(entry.Name()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping artifact with unreadable metadata")
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		name, err := filepath.Rel(root, path)
		if err != nil {
			name = entry.Name()
		}

		artifacts = append(artifacts, store.ArtifactInfo{
			Name:      filepath.ToSlash(name),
			Path:      path,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
		return nil
	})

	if errors.Is(err, os.ErrNotExist) {
		return artifacts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return artifacts, nil
}

// List returns every artifact under the directory.
func (s *Store) List() ([]store.ArtifactInfo, error) {
	return Scan(s.dir)
}

// AggregateSize returns the total size of all artifacts. It walks the same
// tree as eviction so both always agree on what counts.
func (s *Store) AggregateSize() (int64, error) {
	artifacts, err := Scan(s.dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, artifact := range artifacts {
		total += artifact.Size
	}
	return total, nil
}
