package store

import (
	"io"
	"os"
	"time"
)

// ArtifactInfo describes a stored artifact as seen on disk.
type ArtifactInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteResult represents the result of a write operation.
type WriteResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Store defines the artifact storage operations. The directory on disk is the
// only source of truth: every call re-reads it.
type Store interface {
	// Path returns the artifacts directory.
	Path() string

	// ResolveName returns requested unchanged if no artifact of that name exists,
	// otherwise a name with a random suffix inserted before the extension.
	ResolveName(requested string) (string, error)

	// Write stores the reader's content under name and returns its size and SHA-256.
	// A failed write leaves nothing behind under name.
	Write(reader io.Reader, name string) (*WriteResult, error)

	// Exists checks if an artifact with the given name exists.
	Exists(name string) (bool, error)

	// ResolvePath returns the on-disk path of an existing artifact.
	ResolvePath(name string) (string, error)

	// Open opens an artifact for sequential reading. The caller closes the file.
	Open(name string) (*os.File, os.FileInfo, error)

	// List returns every artifact under the directory.
	List() ([]ArtifactInfo, error)

	// AggregateSize returns the total size in bytes of all artifacts.
	AggregateSize() (int64, error)
}

// FileNotFoundError is returned when trying to access an artifact that doesn't exist.
type FileNotFoundError struct {
	Name string
}

func (e FileNotFoundError) Error() string {
	return "file not found"
}

// InvalidNameError is returned when an artifact name is empty or would escape the directory.
type InvalidNameError struct {
	Name string
}

func (e InvalidNameError) Error() string {
	return "invalid artifact name"
}
