package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"spmhost/pkg/log"
	"spmhost/pkg/units"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHostname = "127.0.0.1"
	DefaultPort     = 8080
	// MaxUploadSize is the request body limit, in echo's BodyLimit notation.
	MaxUploadSize = "500M"

	certPathEnv = "CERT_PATH"
	keyPathEnv  = "KEY_PATH"
)

// ErrInvalidBind is returned when --bind is not in host:port form.
var ErrInvalidBind = errors.New("invalid bind address")

// Storage is the artifacts configuration shared read-only by every request.
type Storage struct {
	// ArtifactsPath always ends with a path separator.
	ArtifactsPath string
	MaxSizeBytes  int64
	Limited       bool
}

// Limit returns the size limit and whether one is configured.
func (s Storage) Limit() (int64, bool) {
	return s.MaxSizeBytes, s.Limited
}

// Server holds the listener and TLS settings.
type Server struct {
	Hostname string
	Port     int
	CertPath string
	KeyPath  string
}

// Address returns the listen address in host:port form.
func (s Server) Address() string {
	return net.JoinHostPort(s.Hostname, strconv.Itoa(s.Port))
}

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Storage Storage
	Server  Server
	Debug   bool
}

// Options are the raw, unvalidated inputs from the config file and command line.
type Options struct {
	MaxArtifactsSize string `yaml:"max_artifacts_size"`
	ArtifactsPath    string `yaml:"artifacts_path"`
	Hostname         string `yaml:"hostname"`
	Port             int    `yaml:"port"`
	Bind             string `yaml:"bind"`
	CertPath         string `yaml:"cert_path"`
	KeyPath          string `yaml:"key_path"`
	Debug            bool   `yaml:"debug"`
}

// LoadFile reads Options from a YAML file.
func LoadFile(path string) (Options, error) {
	//nolint:gosec // path is an operator-supplied config file
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return opts, nil
}

// Build validates opts and produces the immutable Config. workingDir anchors
// the default artifacts and certificate paths; getenv supplies CERT_PATH and KEY_PATH.
func Build(opts Options, workingDir string, getenv func(string) string) (Config, error) {
	cfg := Config{Debug: opts.Debug}

	cfg.Storage.ArtifactsPath = artifactsPath(opts.ArtifactsPath, workingDir)

	if opts.MaxArtifactsSize != "" {
		size, err := units.ParseSize(opts.MaxArtifactsSize)
		if err != nil {
			log.Warn().Err(err).Str("max_artifacts_size", opts.MaxArtifactsSize).Msg("Invalid format for --max-artifacts-size. Ignoring limit.")
		} else {
			cfg.Storage.MaxSizeBytes = size
			cfg.Storage.Limited = true
			log.Info().
				Str("max_artifacts_size", opts.MaxArtifactsSize).
				Int64("bytes", size).
				Msg("Artifact size limit set")
		}
	}

	cfg.Server.Hostname = DefaultHostname
	cfg.Server.Port = DefaultPort
	if opts.Bind != "" {
		host, port, err := ParseBind(opts.Bind)
		if err != nil {
			return Config{}, err
		}
		cfg.Server.Hostname = host
		if port > 0 {
			cfg.Server.Port = port
		}
	} else {
		if opts.Hostname != "" {
			cfg.Server.Hostname = opts.Hostname
		}
		if opts.Port != 0 {
			cfg.Server.Port = opts.Port
		}
	}

	cfg.Server.CertPath = firstNonEmpty(getenv(certPathEnv), opts.CertPath, filepath.Join(workingDir, "cert.pem"))
	cfg.Server.KeyPath = firstNonEmpty(getenv(keyPathEnv), opts.KeyPath, filepath.Join(workingDir, "key.pem"))

	return cfg, nil
}

// ParseBind splits "host:port". A non-numeric port is ignored (returned as 0).
func ParseBind(bind string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(bind)
	if err != nil {
		return "", 0, fmt.Errorf("%w %q: %w", ErrInvalidBind, bind, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return host, 0, nil
	}
	return host, port, nil
}

func artifactsPath(custom, workingDir string) string {
	path := custom
	if path == "" {
		path = filepath.Join(workingDir, "artifacts")
	}
	if !strings.HasSuffix(path, string(filepath.Separator)) {
		path += string(filepath.Separator)
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
