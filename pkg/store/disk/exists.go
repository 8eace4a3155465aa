package disk

import (
	"os"

	"spmhost/pkg/store"
)

// Exists checks if an artifact with the given name exists.
func (s *Store) Exists(name string) (bool, error) {
	if !ValidateName(name) {
		return false, store.InvalidNameError{Name: name}
	}

	if _, err := os.Lstat(s.artifactPath(name)); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return true, nil
}

// ResolvePath returns the path of an existing regular artifact file.
func (s *Store) ResolvePath(name string) (string, error) {
	if !ValidateName(name) {
		return "", store.InvalidNameError{Name: name}
	}

	path := s.artifactPath(name)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", store.FileNotFoundError{Name: name}
	} else if err != nil {
		return "", err
	}

	if !info.Mode().IsRegular() {
		return "", store.FileNotFoundError{Name: name}
	}

	return path, nil
}
