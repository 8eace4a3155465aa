package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"spmhost/pkg/log"
	"spmhost/pkg/manifest"
	"spmhost/pkg/store"
	"spmhost/pkg/units"

	"github.com/labstack/echo/v4"
)

const (
	headerFilename       = "X-Filename"
	headerForwardedProto = "X-Forwarded-Proto"

	uploadStatusOK         = "ok"
	uploadStatusBadRequest = "bad_request"
	uploadStatusError      = "error"
)

// uploadInput is the file taken from either a multipart field or the raw body.
type uploadInput struct {
	filename string
	body     io.ReadCloser
}

func (srv *ArtifactServer) uploadArtifact(ctx echo.Context) error {
	log.Info().Msg("Artifact upload request received")

	input, message := srv.readUploadInput(ctx)
	if input == nil {
		log.Warn().Str("reason", message).Msg("Rejected upload")
		return srv.rejectUpload(ctx, message)
	}
	defer func() {
		if err := input.body.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close upload body")
		}
	}()

	if !manifest.IsArchive(input.filename) {
		log.Warn().Str("filename", input.filename).Msg("Rejected upload with non-archive extension")
		return srv.rejectUpload(ctx, "Only "+manifest.ArchiveExtension+" files are allowed")
	}

	finalName, err := srv.store.ResolveName(input.filename)
	if err != nil {
		var invalidNameErr store.InvalidNameError
		if errors.As(err, &invalidNameErr) {
			return srv.rejectUpload(ctx, "invalid filename")
		}
		log.Error().Err(err).Str("filename", input.filename).Msg("Failed to resolve artifact name")
		return srv.failUpload(ctx)
	}

	result, err := srv.store.Write(input.body, finalName)
	if err != nil {
		log.Error().Err(err).Str("filename", finalName).Msg("Failed to store artifact")
		return srv.failUpload(ctx)
	}

	if limit, limited := srv.cfg.Storage.Limit(); limited {
		srv.scheduler.Schedule(srv.store, limit)
	}

	url := manifest.PublicURL(requestScheme(ctx, srv.tlsEnabled), requestHost(ctx), result.Filename)
	packageManifest := manifest.Generate(manifest.PackageName(input.filename), url, result.Checksum)

	srv.metrics.ObserveUpload(uploadStatusOK, result.Size)
	srv.logRemainingSpace()

	return ctx.String(http.StatusOK, packageManifest)
}

// readUploadInput returns the upload or, when none can be extracted, a client-facing reason.
func (srv *ArtifactServer) readUploadInput(ctx echo.Context) (*uploadInput, string) {
	req := ctx.Request()

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			return nil, "file parameter is required"
		}

		src, err := fileHeader.Open()
		if err != nil {
			log.Error().Err(err).Msg("Failed to open uploaded file")
			return nil, "failed to read uploaded file"
		}
		return &uploadInput{filename: fileHeader.Filename, body: src}, ""
	}

	filename := filenameFromHeaders(req.Header)
	if filename == "" {
		return nil, "File must be provided in 'file' field or via raw binary with X-Filename header"
	}

	if req.Body == nil || req.Body == http.NoBody || req.ContentLength == 0 {
		return nil, "File content is missing"
	}

	return &uploadInput{filename: filename, body: req.Body}, ""
}

// filenameFromHeaders reads X-Filename, falling back to the filename parameter of Content-Disposition.
func filenameFromHeaders(header http.Header) string {
	if name := strings.TrimSpace(header.Get(headerFilename)); name != "" {
		return name
	}

	disposition := header.Get(echo.HeaderContentDisposition)
	if disposition == "" {
		return ""
	}

	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	// Tolerate headers mime rejects, e.g. a bare `filename=Foo.zip` without a disposition type.
	idx := strings.Index(disposition, "filename=")
	if idx < 0 {
		return ""
	}
	value := disposition[idx+len("filename="):]
	if end := strings.Index(value, ";"); end >= 0 {
		value = value[:end]
	}
	return strings.Trim(strings.TrimSpace(value), `"`)
}

func requestScheme(ctx echo.Context, tlsEnabled bool) string {
	if proto := strings.TrimSpace(ctx.Request().Header.Get(headerForwardedProto)); proto != "" {
		return proto
	}
	if tlsEnabled {
		return "https"
	}
	return "http"
}

func requestHost(ctx echo.Context) string {
	if host := ctx.Request().Host; host != "" {
		return host
	}
	return defaultHost
}

func (srv *ArtifactServer) logRemainingSpace() {
	total, err := srv.store.AggregateSize()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to compute artifacts size")
		return
	}
	srv.metrics.SetArtifactsBytes(total)

	limit, limited := srv.cfg.Storage.Limit()
	if !limited {
		log.Info().Str("remaining", "∞").Msg("Artifact uploaded")
		return
	}

	log.Info().Str("remaining", units.FormatBytes(limit-total)).Msg("Artifact uploaded")
}

func (srv *ArtifactServer) rejectUpload(ctx echo.Context, message string) error {
	srv.metrics.ObserveUpload(uploadStatusBadRequest, 0)
	return ctx.JSON(http.StatusBadRequest, map[string]string{
		"error": message,
	})
}

func (srv *ArtifactServer) failUpload(ctx echo.Context) error {
	srv.metrics.ObserveUpload(uploadStatusError, 0)
	return ctx.JSON(http.StatusInternalServerError, map[string]string{
		"error": "failed to store artifact",
	})
}
