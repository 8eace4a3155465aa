package manifest

import (
	"fmt"
	"strings"
)

// ArchiveExtension is the only artifact type accepted for upload.
const ArchiveExtension = ".zip"

const packageTemplate = `// swift-tools-version: 5.9
import PackageDescription

let package = Package(
    name: "%[1]s",
    products: [
        .library(
            name: "%[1]s",
            targets: ["%[1]s"]
        ),
    ],
    targets: [
        .binaryTarget(
            name: "%[1]s",
            url: "%[2]s",
            checksum: "%[3]s"
        )
    ]
)`

// IsArchive reports whether filename carries the archive extension, ignoring case.
func IsArchive(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ArchiveExtension)
}

// PackageName derives the package name from the uploaded filename by dropping
// the archive extension.
func PackageName(filename string) string {
	return strings.ReplaceAll(filename, ArchiveExtension, "")
}

// PublicURL builds the download URL of a stored artifact.
func PublicURL(scheme, host, storedFilename string) string {
	return fmt.Sprintf("%s://%s/artifacts/%s", scheme, host, storedFilename)
}

// Generate renders the Package.swift manifest that points SwiftPM at the binary target.
func Generate(packageName, url, checksum string) string {
	return fmt.Sprintf(packageTemplate, packageName, url, checksum)
}
