package main

import (
	"fmt"
	"os"
	"strings"

	"spmhost/pkg/config"
	"spmhost/pkg/log"
	"spmhost/pkg/server"
	"spmhost/pkg/store/disk"
	"spmhost/pkg/units"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newServeCommand() *cobra.Command {
	var (
		configPath string
		flagOpts   config.Options
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the artifact server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileOpts := config.Options{}
			if configPath != "" {
				var err error
				if fileOpts, err = config.LoadFile(configPath); err != nil {
					return err
				}
			}
			opts := mergeOptions(fileOpts, flagOpts, cmd.Flags())
			if opts.Debug {
				log.SetDebugMode()
			}

			workingDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}

			cfg, err := config.Build(opts, workingDir, os.Getenv)
			if err != nil {
				return err
			}

			limit := "unlimited"
			if size, limited := cfg.Storage.Limit(); limited {
				limit = units.FormatBytes(size)
			}
			log.Info().
				Str("artifacts_path", cfg.Storage.ArtifactsPath).
				Str("max_size", limit).
				Msg("Artifacts location")

			srv := server.NewArtifactServer(cfg, disk.New(cfg.Storage.ArtifactsPath), strings.TrimSpace(Version))
			return srv.Start()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&flagOpts.MaxArtifactsSize, "max-artifacts-size", "", "Maximum total size of stored artifacts, e.g. 500MB or 2G")
	flags.StringVar(&flagOpts.ArtifactsPath, "artifacts-path", "", "Artifacts directory (default <cwd>/artifacts/)")
	flags.StringVarP(&flagOpts.Hostname, "hostname", "H", config.DefaultHostname, "Hostname to listen on")
	flags.IntVarP(&flagOpts.Port, "port", "p", config.DefaultPort, "Port to listen on")
	flags.StringVarP(&flagOpts.Bind, "bind", "b", "", "Address in host:port form, overrides --hostname and --port")
	flags.StringVar(&flagOpts.CertPath, "cert-path", "", "TLS certificate path (default $CERT_PATH or <cwd>/cert.pem)")
	flags.StringVar(&flagOpts.KeyPath, "key-path", "", "TLS key path (default $KEY_PATH or <cwd>/key.pem)")
	return cmd
}

// mergeOptions overlays the flags the user actually set on top of the config file values.
func mergeOptions(fileOpts, flagOpts config.Options, flags *pflag.FlagSet) config.Options {
	opts := fileOpts

	if flags.Changed("max-artifacts-size") {
		opts.MaxArtifactsSize = flagOpts.MaxArtifactsSize
	}
	if flags.Changed("artifacts-path") {
		opts.ArtifactsPath = flagOpts.ArtifactsPath
	}
	if flags.Changed("hostname") {
		opts.Hostname = flagOpts.Hostname
	}
	if flags.Changed("port") {
		opts.Port = flagOpts.Port
	}
	if flags.Changed("bind") {
		opts.Bind = flagOpts.Bind
	}
	if flags.Changed("cert-path") {
		opts.CertPath = flagOpts.CertPath
	}
	if flags.Changed("key-path") {
		opts.KeyPath = flagOpts.KeyPath
	}
	if debug, err := flags.GetBool("debug"); err == nil && flags.Changed("debug") {
		opts.Debug = debug
	}

	return opts
}
