package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"spmhost/pkg/log"

	"github.com/spf13/cobra"
)

//go:embed VERSION
var Version string

func main() {
	root := newRootCommand()
	root.SetArgs(defaultToServe(os.Args[1:]))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		debug    bool
		jsonLogs bool
	)

	cmd := &cobra.Command{
		Use:           "spmhost",
		Short:         "Host Swift Package Manager binary artifacts",
		Version:       strings.TrimSpace(Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Configure(log.Options{JSON: jsonLogs, Debug: debug})
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newUploadCommand())
	cmd.AddCommand(newDownloadCommand())
	return cmd
}

// defaultToServe runs `serve` when no subcommand is named.
func defaultToServe(args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}

	first := args[0]
	if !strings.HasPrefix(first, "-") {
		return args
	}
	switch first {
	case "-h", "--help", "-v", "--version":
		return args
	}
	return append([]string{"serve"}, args...)
}
