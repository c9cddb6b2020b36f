package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farm2go/adminguard/metrics/export/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMetricsCmd(a *app) *cobra.Command {
	var serve string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print guard metrics in Prometheus format",
		Long: `Evaluate the session once and print this process's guard counters in
Prometheus text format. With --serve, keep evaluating on each scrape and serve
/metrics on the given address until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exp := prometheus.New(a.engine)
			if serve == "" {
				a.engine.Evaluate(cmd.Context())
				fmt.Fprint(a.out, exp.Render())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serveMetrics(ctx, serve, exp)
		},
	}
	cmd.Flags().StringVar(&serve, "serve", "", "listen address, e.g. :9464")
	return cmd
}

func (a *app) serveMetrics(ctx context.Context, addr string, exp *prometheus.Exporter) error {
	mux := http.NewServeMux()
	handler := exp.Handler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		a.engine.Evaluate(r.Context())
		handler.ServeHTTP(w, r)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))
	fmt.Fprintf(a.out, "Serving metrics on %s/metrics\n", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
