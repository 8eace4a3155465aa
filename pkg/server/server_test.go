package server

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spmhost/pkg/checksum"
	"spmhost/pkg/config"
	"spmhost/pkg/store"
	"spmhost/pkg/store/disk"

	"github.com/stretchr/testify/suite"
)

// MockStore implements the store.Store interface for failure paths
type MockStore struct {
	files    map[string][]byte
	writeErr error
	openErr  error
	sizeErr  error
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{files: make(map[string][]byte)}
}

func (m *MockStore) Path() string {
	return "/mock/artifacts"
}

func (m *MockStore) ResolveName(requested string) (string, error) {
	if !disk.ValidateName(requested) {
		return "", store.InvalidNameError{Name: requested}
	}
	return requested, nil
}

func (m *MockStore) Write(reader io.Reader, name string) (*store.WriteResult, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.files[name] = data
	return &store.WriteResult{Filename: name, Size: int64(len(data)), Checksum: checksum.SHA256Hex(data)}, nil
}

func (m *MockStore) Exists(name string) (bool, error) {
	_, ok := m.files[name]
	return ok, nil
}

func (m *MockStore) ResolvePath(name string) (string, error) {
	if _, ok := m.files[name]; !ok {
		return "", store.FileNotFoundError{Name: name}
	}
	return filepath.Join(m.Path(), name), nil
}

func (m *MockStore) Open(name string) (*os.File, os.FileInfo, error) {
	if m.openErr != nil {
		return nil, nil, m.openErr
	}
	return nil, nil, store.FileNotFoundError{Name: name}
}

func (m *MockStore) List() ([]store.ArtifactInfo, error) {
	artifacts := make([]store.ArtifactInfo, 0, len(m.files))
	for name, data := range m.files {
		artifacts = append(artifacts, store.ArtifactInfo{Name: name, Size: int64(len(data)), CreatedAt: time.Now()})
	}
	return artifacts, nil
}

func (m *MockStore) AggregateSize() (int64, error) {
	if m.sizeErr != nil {
		return 0, m.sizeErr
	}
	var total int64
	for _, data := range m.files {
		total += int64(len(data))
	}
	return total, nil
}

var errDiskFull = errors.New("no space left on device")

// serverSuite holds the fixture shared by the server test suites
type serverSuite struct {
	suite.Suite
	tempDir      string
	artifactsDir string
	server       *ArtifactServer
}

// SetupTest starts every test with an empty artifacts directory and no size limit
func (s *serverSuite) SetupTest() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "server-test-*")
	s.Require().NoError(err)
	s.artifactsDir = filepath.Join(s.tempDir, "artifacts")
	s.newServer(config.Storage{ArtifactsPath: s.artifactsDir + string(filepath.Separator)}, nil)
}

// TearDownTest waits for background eviction before removing the directory
func (s *serverSuite) TearDownTest() {
	if s.server != nil {
		s.server.scheduler.Wait()
	}
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

func (s *serverSuite) testConfig(storage config.Storage) config.Config {
	return config.Config{
		Storage: storage,
		Server: config.Server{
			Hostname: "127.0.0.1",
			Port:     8080,
			CertPath: filepath.Join(s.tempDir, "cert.pem"),
			KeyPath:  filepath.Join(s.tempDir, "key.pem"),
		},
	}
}

// newServer replaces the suite's server; a nil storeImpl means a disk store on the artifacts dir.
func (s *serverSuite) newServer(storage config.Storage, storeImpl store.Store) {
	if storeImpl == nil {
		storeImpl = disk.New(storage.ArtifactsPath)
	}
	s.server = NewArtifactServer(s.testConfig(storage), storeImpl, "test-v1.0.0")
}

func (s *serverSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *serverSuite) multipartRequest(field, filename, content string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = part.Write([]byte(content))
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Host = "localhost:8080"
	return req
}

func (s *serverSuite) rawRequest(content string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(content))
	req.Header.Set("Content-Type", "application/zip")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	req.Host = "localhost:8080"
	return req
}

func (s *serverSuite) writeArtifact(name, content string, modTime time.Time) string {
	s.Require().NoError(os.MkdirAll(s.artifactsDir, 0o750))
	path := filepath.Join(s.artifactsDir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	s.Require().NoError(os.Chtimes(path, modTime, modTime))
	return path
}
