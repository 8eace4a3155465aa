package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spmhost/pkg/cleaner"
	"spmhost/pkg/config"
	"spmhost/pkg/log"
	"spmhost/pkg/metrics"
	"spmhost/pkg/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout = 10
	defaultHost     = "localhost:8080"
)

// ArtifactServer serves uploads and downloads of artifacts over HTTP.
type ArtifactServer struct {
	cfg        config.Config
	echo       *echo.Echo
	version    string
	store      store.Store
	scheduler  *cleaner.Scheduler
	metrics    *metrics.Collector
	tlsEnabled bool
}

// NewArtifactServer wires the store, the eviction scheduler and metrics behind an echo instance.
// TLS is enabled when the configured certificate and key load successfully.
func NewArtifactServer(cfg config.Config, storeImpl store.Store, version string) *ArtifactServer {
	collector := metrics.New()

	srv := &ArtifactServer{
		cfg:     cfg,
		echo:    echo.New(),
		version: version,
		store:   storeImpl,
		metrics: collector,
	}
	srv.scheduler = cleaner.NewScheduler(srv.onEvictionDone)
	srv.tlsEnabled = srv.loadTLS()
	srv.setupRoutes()

	return srv
}

func (srv *ArtifactServer) loadTLS() bool {
	if _, err := tls.LoadX509KeyPair(srv.cfg.Server.CertPath, srv.cfg.Server.KeyPath); err != nil {
		log.Warn().
			Err(err).
			Str("cert_path", srv.cfg.Server.CertPath).
			Str("key_path", srv.cfg.Server.KeyPath).
			Msg("Could not load TLS certificates. Server will start in HTTP mode.")
		return false
	}

	log.Info().
		Str("cert_path", srv.cfg.Server.CertPath).
		Str("key_path", srv.cfg.Server.KeyPath).
		Msg("TLS enabled")
	return true
}

func (srv *ArtifactServer) onEvictionDone(result cleaner.Result) {
	srv.metrics.ObserveEviction(len(result.Deleted), result.FreedBytes, result.Failed, result.RemainingBytes)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (srv *ArtifactServer) Start() error {
	addr := srv.cfg.Server.Address()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("artifacts_dir", srv.store.Path()).
			Bool("tls", srv.tlsEnabled).
			Str("version", srv.version).
			Msg("Starting artifact server")

		var err error
		if srv.tlsEnabled {
			err = srv.echo.StartTLS(addr, srv.cfg.Server.CertPath, srv.cfg.Server.KeyPath)
		} else {
			err = srv.echo.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return srv.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight eviction passes.
func (srv *ArtifactServer) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout*time.Second)
	defer cancel()

	if err := srv.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Waiting for eviction passes to finish...")
	srv.scheduler.Wait()

	log.Info().Msg("Shutdown complete")
	return nil
}

// Handler returns the configured router.
func (srv *ArtifactServer) Handler() http.Handler {
	return srv.echo
}

func (srv *ArtifactServer) setupRoutes() {
	srv.echo.HideBanner = true
	srv.echo.HidePort = true
	srv.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	srv.echo.Use(middleware.Recover())
	srv.echo.Use(middleware.BodyLimit(config.MaxUploadSize))

	srv.echo.GET("/", srv.serveIndex)
	srv.echo.GET("/hello", srv.hello)
	srv.echo.GET("/healthz", srv.healthz)
	srv.echo.GET("/cert", srv.serveCert)
	srv.echo.GET("/metrics", echo.WrapHandler(srv.metrics.Handler()))
	srv.echo.POST("/upload", srv.uploadArtifact)
	srv.echo.GET("/artifacts/:filename", srv.downloadArtifact)
}
