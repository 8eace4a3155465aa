package disk

import (
	"path/filepath"
	"strings"

	"spmhost/pkg/store"
)

const (
	dirPerm  = 0750
	filePerm = 0640
	// Temporary upload files carry this prefix; hidden entries are never
	// listed, counted or evicted.
	tempPattern = ".upload-*"
)

// Store implements the store.Store interface on a plain directory.
// It keeps no index: every operation goes back to the filesystem.
type Store struct {
	dir string
}

var _ store.Store = (*Store)(nil)

// New creates a Store rooted at dir. The directory is created lazily on first write.
func New(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Path returns the artifacts directory.
func (s *Store) Path() string {
	return s.dir
}

// artifactPath returns the on-disk path for a validated artifact name.
func (s *Store) artifactPath(name string) string {
	return filepath.Join(s.dir, name)
}

// ValidateName reports whether name is a plain, visible file name that stays inside the directory.
func ValidateName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
