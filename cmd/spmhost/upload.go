package main

import (
	"context"
	"fmt"
	"os"

	"spmhost/pkg/client"
	"spmhost/pkg/log"

	"github.com/spf13/cobra"
)

const defaultServerURL = "http://127.0.0.1:8080"

func newUploadCommand() *cobra.Command {
	var (
		serverURL string
		retries   int
	)

	cmd := &cobra.Command{
		Use:   "upload <archive.zip>",
		Short: "Upload an archive and print its Package.swift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			c := client.New(serverURL, client.Options{RetryMax: retries})
			manifest, err := c.UploadFile(ctx, args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), manifest)
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "Base URL of the spmhost server")
	cmd.Flags().IntVar(&retries, "retries", client.DefaultRetryMax, "Retries on connection errors, 0 disables them")
	return cmd
}

func newDownloadCommand() *cobra.Command {
	var (
		serverURL string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download a stored artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if output == "" {
				output = args[0]
			}
			//nolint:gosec // output is chosen by the operator
			file, err := os.Create(output)
			if err != nil {
				return err
			}

			c := client.New(serverURL, client.Options{RetryMax: client.DefaultRetryMax})
			written, err := c.Download(ctx, args[0], file)
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(output)
				return err
			}

			log.Info().Str("path", output).Int64("bytes", written).Msg("Artifact downloaded")
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "Base URL of the spmhost server")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: the artifact name)")
	return cmd
}
