package manifest

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// ManifestTestSuite tests manifest generation
type ManifestTestSuite struct {
	suite.Suite
}

// TestIsArchive tests extension matching
func (s *ManifestTestSuite) TestIsArchive() {
	s.True(IsArchive("Foo.zip"))
	s.True(IsArchive("Foo.ZIP"))
	s.True(IsArchive("Foo.xcframework.zip"))
	s.False(IsArchive("test.txt"))
	s.False(IsArchive("Foo.zip.txt"))
	s.False(IsArchive("zip"))
}

// TestPackageName tests the extension is stripped
func (s *ManifestTestSuite) TestPackageName() {
	s.Equal("test", PackageName("test.zip"))
	s.Equal("Foo.xcframework", PackageName("Foo.xcframework.zip"))
	s.Equal("Upper.ZIP", PackageName("Upper.ZIP"))
}

// TestPublicURL tests URL construction
func (s *ManifestTestSuite) TestPublicURL() {
	s.Equal("http://localhost:8080/artifacts/test.zip", PublicURL("http", "localhost:8080", "test.zip"))
	s.Equal("https://cdn.example.com/artifacts/Foo-1A2B3C.zip", PublicURL("https", "cdn.example.com", "Foo-1A2B3C.zip"))
}

// TestGenerate tests the exact manifest layout
func (s *ManifestTestSuite) TestGenerate() {
	expected := `// swift-tools-version: 5.9
import PackageDescription

let package = Package(
    name: "test",
    products: [
        .library(
            name: "test",
            targets: ["test"]
        ),
    ],
    targets: [
        .binaryTarget(
            name: "test",
            url: "http://localhost:8080/artifacts/test.zip",
            checksum: "abc123"
        )
    ]
)`

	s.Equal(expected, Generate("test", "http://localhost:8080/artifacts/test.zip", "abc123"))
}

// TestManifestSuite runs the manifest test suite
func TestManifestSuite(t *testing.T) {
	suite.Run(t, new(ManifestTestSuite))
}
