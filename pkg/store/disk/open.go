package disk

import (
	"os"

	"spmhost/pkg/log"
	"spmhost/pkg/store"
)

// Open opens an artifact for streaming. An artifact evicted between the
// caller's existence check and this call is reported as FileNotFoundError.
func (s *Store) Open(name string) (*os.File, os.FileInfo, error) {
	path, err := s.ResolvePath(name)
	if err != nil {
		return nil, nil, err
	}

	//nolint:gosec // path is built from a validated artifact name
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Debug().Str("filename", name).Msg("Artifact vanished before open")
		return nil, nil, store.FileNotFoundError{Name: name}
	} else if err != nil {
		log.Error().Err(err).Str("file_path", path).Msg("Failed to open artifact")
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return file, info, nil
}
