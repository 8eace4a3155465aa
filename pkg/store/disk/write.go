package disk

import (
	"fmt"
	"io"
	"os"

	"spmhost/pkg/checksum"
	"spmhost/pkg/log"
	"spmhost/pkg/store"
)

// Write streams reader into a hidden temporary file next to the final location,
// hashing on the way, and renames it into place once everything is on disk.
func (s *Store) Write(reader io.Reader, name string) (*store.WriteResult, error) {
	if !ValidateName(name) {
		return nil, store.InvalidNameError{Name: name}
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		log.Error().Err(err).Str("artifacts_dir", s.dir).Msg("Failed to create artifacts directory")
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}

	tempFile, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		log.Error().Err(err).Str("artifacts_dir", s.dir).Msg("Failed to create temporary file")
		return nil, fmt.Errorf("create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("temp_file", tempPath).Msg("Failed to remove temporary file")
		}
	}()

	hasher := checksum.New()
	size, err := io.Copy(io.MultiWriter(tempFile, hasher), reader)
	if err != nil {
		_ = tempFile.Close()
		log.Error().Err(err).Str("filename", name).Msg("Failed to write artifact")
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		log.Error().Err(err).Str("temp_file", tempPath).Msg("Failed to sync temporary file")
		return nil, fmt.Errorf("sync artifact: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		log.Error().Err(err).Str("temp_file", tempPath).Msg("Failed to close temporary file")
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Chmod(tempPath, filePerm); err != nil {
		return nil, fmt.Errorf("chmod artifact: %w", err)
	}

	targetPath := s.artifactPath(name)
	if err := os.Rename(tempPath, targetPath); err != nil {
		log.Error().Err(err).Str("target_path", targetPath).Msg("Failed to move artifact into place")
		return nil, fmt.Errorf("rename artifact: %w", err)
	}
	committed = true

	result := &store.WriteResult{
		Filename: name,
		Size:     size,
		Checksum: hasher.Hex(),
	}

	log.Info().
		Str("filename", name).
		Int64("size", size).
		Str("checksum", result.Checksum).
		Msg("Artifact stored")

	return result, nil
}
