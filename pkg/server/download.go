package server

import (
	"errors"
	"net/http"

	"spmhost/pkg/log"
	"spmhost/pkg/manifest"
	"spmhost/pkg/store"

	"github.com/labstack/echo/v4"
)

func (srv *ArtifactServer) downloadArtifact(ctx echo.Context) error {
	filename := ctx.Param("filename")
	log.Info().Str("filename", filename).Msg("Artifact download request")

	file, info, err := srv.store.Open(filename)
	if err != nil {
		var notFoundErr store.FileNotFoundError
		var invalidNameErr store.InvalidNameError
		if errors.As(err, &notFoundErr) || errors.As(err, &invalidNameErr) {
			srv.metrics.ObserveDownload("not_found")
			return ctx.JSON(http.StatusNotFound, map[string]string{
				"error": "file not found",
			})
		}
		log.Error().Err(err).Str("filename", filename).Msg("Failed to open artifact")
		srv.metrics.ObserveDownload("error")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to download file",
		})
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close artifact")
		}
	}()

	srv.metrics.ObserveDownload("ok")
	log.Info().Str("filename", filename).Int64("size", info.Size()).Msg("Serving artifact download")

	if manifest.IsArchive(info.Name()) {
		ctx.Response().Header().Set(echo.HeaderContentType, "application/zip")
	}
	http.ServeContent(ctx.Response(), ctx.Request(), info.Name(), info.ModTime(), file)
	return nil
}
