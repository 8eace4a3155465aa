package server

import (
	_ "embed"
	"html/template"
	"net/http"

	"spmhost/pkg/log"

	"github.com/labstack/echo/v4"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

func (srv *ArtifactServer) serveIndex(ctx echo.Context) error {
	data := struct {
		Title   string
		Version string
	}{
		Title:   "spmhost",
		Version: srv.version,
	}

	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(http.StatusOK)
	return indexTemplate.Execute(ctx.Response().Writer, data)
}

func (srv *ArtifactServer) hello(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Hello, world!")
}

func (srv *ArtifactServer) healthz(ctx echo.Context) error {
	return ctx.NoContent(http.StatusOK)
}

// serveCert lets clients fetch the server certificate to trust it.
func (srv *ArtifactServer) serveCert(ctx echo.Context) error {
	if !srv.tlsEnabled {
		return ctx.JSON(http.StatusNotFound, map[string]string{
			"error": "Certificate not configured or available",
		})
	}

	log.Debug().Str("cert_path", srv.cfg.Server.CertPath).Msg("Serving certificate")
	return ctx.File(srv.cfg.Server.CertPath)
}
