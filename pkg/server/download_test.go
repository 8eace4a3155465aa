package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spmhost/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

// DownloadTestSuite tests the download handler
type DownloadTestSuite struct {
	serverSuite
}

func (s *DownloadTestSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = "localhost:8080"
	return s.serve(req)
}

// TestDownloadExisting tests a stored artifact is returned byte for byte
func (s *DownloadTestSuite) TestDownloadExisting() {
	content := "PK\x03\x04\x00\x01\x02 archive bytes"
	s.writeArtifact("Foo.zip", content, time.Now())

	rec := s.get("/artifacts/Foo.zip")

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(content, rec.Body.String())
	s.Equal("application/zip", rec.Header().Get("Content-Type"))
	s.InDelta(1, testutil.ToFloat64(s.server.metrics.Downloads.WithLabelValues("ok")), 0)
}

// TestDownloadRange tests partial content requests are honoured
func (s *DownloadTestSuite) TestDownloadRange() {
	s.writeArtifact("Foo.zip", "0123456789", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/artifacts/Foo.zip", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := s.serve(req)

	s.Equal(http.StatusPartialContent, rec.Code)
	s.Equal("0123", rec.Body.String())
}

// TestDownloadMissing tests unknown artifacts return 404
func (s *DownloadTestSuite) TestDownloadMissing() {
	rec := s.get("/artifacts/Missing.zip")

	s.Equal(http.StatusNotFound, rec.Code)
	s.JSONEq(`{"error":"file not found"}`, rec.Body.String())
	s.InDelta(1, testutil.ToFloat64(s.server.metrics.Downloads.WithLabelValues("not_found")), 0)
}

// TestDownloadInvalidName tests names outside the artifacts directory are reported as missing
func (s *DownloadTestSuite) TestDownloadInvalidName() {
	s.writeArtifact("Foo.zip", "payload", time.Now())

	for _, path := range []string{"/artifacts/..%2FFoo.zip", "/artifacts/.hidden.zip"} {
		s.Run(path, func() {
			rec := s.get(path)
			s.Equal(http.StatusNotFound, rec.Code)
		})
	}
}

// TestDownloadAfterUpload tests an uploaded artifact can be fetched from its manifest URL path
func (s *DownloadTestSuite) TestDownloadAfterUpload() {
	content := "round trip payload"
	rec := s.serve(s.rawRequest(content, map[string]string{headerFilename: "RoundTrip.zip"}))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "http://localhost:8080/artifacts/RoundTrip.zip")

	rec = s.get("/artifacts/RoundTrip.zip")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(content, rec.Body.String())
}

// TestDownloadHandlerDirect tests the handler with a hand-built echo context
func (s *DownloadTestSuite) TestDownloadHandlerDirect() {
	s.writeArtifact("Direct.zip", "direct", time.Now())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/artifacts/Direct.zip", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("filename")
	ctx.SetParamValues("Direct.zip")

	s.Require().NoError(s.server.downloadArtifact(ctx))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("direct", rec.Body.String())
}

// TestDownloadOpenFailure tests unexpected storage errors map to 500
func (s *DownloadTestSuite) TestDownloadOpenFailure() {
	mockStore := NewMockStore()
	mockStore.openErr = errDiskFull
	s.newServer(config.Storage{ArtifactsPath: mockStore.Path()}, mockStore)

	rec := s.get("/artifacts/Foo.zip")

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.JSONEq(`{"error":"failed to download file"}`, rec.Body.String())
	s.InDelta(1, testutil.ToFloat64(s.server.metrics.Downloads.WithLabelValues("error")), 0)
}

// TestDownloadSuite runs the download test suite
func TestDownloadSuite(t *testing.T) {
	suite.Run(t, new(DownloadTestSuite))
}
