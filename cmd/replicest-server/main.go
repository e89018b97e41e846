// Command replicest-server runs the replication engine's UDS/TCP server:
// a control endpoint for text commands and a data endpoint for binary
// payloads.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/replicest/replicest/internal/metrics"
	"github.com/replicest/replicest/internal/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "replicest-server: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var controlAddr, dataAddr, metricsAddr string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replicest-server",
		Short: "Serve the replicest replication engine over a control/data socket pair",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(controlAddr, dataAddr, metricsAddr, verbose)
		},
	}

	cmd.Flags().StringVarP(&controlAddr, "control", "s", "", "control endpoint (host:port or socket path)")
	cmd.Flags().StringVarP(&dataAddr, "data", "d", "", "data endpoint (host:port or socket path)")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "optional host:port to serve Prometheus metrics on")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log a one-line analysis summary before every calculate")
	cmd.MarkFlagRequired("control")
	cmd.MarkFlagRequired("data")

	return cmd
}

func run(controlAddr, dataAddr, metricsAddr string, verbose bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	m := metrics.New()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil { //nolint:gosec
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	srv := server.New(controlAddr, dataAddr, logger, m)
	srv.Verbose = verbose
	logger.Info("replicest-server listening", "control", controlAddr, "data", dataAddr)
	return srv.Run()
}
