package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/internal/httpapi"
	"github.com/spf13/cobra"
)

// serveCmd starts the read-only HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored pull requests and report data over HTTP",
	Long: `Start a read-only JSON API over the store.

Routes:
  GET /healthz
  GET /status
  GET /repos/{owner}/{name}/pulls/{number}
  GET /repos/{owner}/{name}/reports/{statType}?lookback=30d
  GET /repos/{owner}/{name}/reports/{statType}?start-date=2024-01-01&end-date=2024-02-01

Examples:
  sizeup serve --addr 127.0.0.1:8080`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		ready := make(chan string, 1)
		go func() {
			if addr, ok := <-ready; ok {
				_, _ = fmt.Fprintf(os.Stderr, "🌐 Serving sizeup API on http://%s\n", addr)
			}
		}()
		if err := httpapi.Serve(ctx, cfg.Addr, store, ready); err != nil {
			contract.LogFatal("HTTP server failed", err)
		}
	},
}
