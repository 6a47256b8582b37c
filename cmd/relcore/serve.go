package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/relforge/relcore/pkg/log"
	"github.com/relforge/relcore/pkg/metrics"
	"github.com/relforge/relcore/pkg/reconciler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the janitor loop and expose /metrics, /health, /ready",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()
	// serve never opens a mutating transaction of its own, so there is
	// nothing for finish to commit; release the ambient one started by
	// openRuntime immediately.
	_ = rt.txn.Abort()

	logger := log.WithComponent("serve")

	metrics.RegisterComponent("catalog", true, "open")
	metrics.RegisterComponent("wal", true, "open")
	metrics.RegisterComponent("smgr", true, "open")

	collector := metrics.NewCollector(rt.catalog)
	collector.Start()
	defer collector.Stop()

	janitor := reconciler.New(rt.catalog, rt.smgr, 10*time.Second)
	janitor.Start()
	defer janitor.Stop()

	if !rt.cfg.Metrics.Enabled {
		logger.Info().Msg("metrics server disabled, janitor running without HTTP exposition")
		<-cmd.Context().Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/livez", metrics.LivenessHandler())

	srv := &http.Server{Addr: rt.cfg.Metrics.Listen, Handler: mux}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("listen", rt.cfg.Metrics.Listen).Msg("metrics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server exited")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
