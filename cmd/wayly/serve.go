package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/wayly/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the route API and the monitoring endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Create a context that will be canceled when an interrupt signal is received.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Env != envLocal {
				gin.SetMode(gin.ReleaseMode)
			}

			api := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
				Handler:           server.NewRouter(a.log, a.routes),
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			go startMonitoringServer(ctx, a.log, a.reg, a.dtb, a.cfg.MetricsPort)
			go func() {
				a.log.InfoContext(ctx, "Starting route API", "port", a.cfg.HTTPPort)
				if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.ErrorContext(ctx, "Route API failed", "error", err)
					stop()
				}
			}()

			a.log.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

			// Wait for the context to be canceled (e.g., by Ctrl+C).
			<-ctx.Done()

			a.log.InfoContext(ctx, "Shutdown signal received. Stopping application...")

			const shutdownTimeout = 10 * time.Second
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err = api.Shutdown(shutdownCtx); err != nil {
				a.log.ErrorContext(shutdownCtx, "Route API shutdown failed", "error", err)
			}

			a.log.InfoContext(shutdownCtx, "Application stopped gracefully.")
			return nil
		},
	}
}

// startMonitoringServer serves /healthz and /metrics on port until ctx is cancelled.
// dtb may be nil, in which case the health check does not ping the database.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if dtb != nil {
			if err := dtb.Ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}
