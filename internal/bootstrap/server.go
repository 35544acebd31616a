package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StartHTTPServer serves router until SIGINT or SIGTERM, then drains
// in-flight requests. onShutdown hooks run after the listener has closed.
func StartHTTPServer(
	router *gin.Engine,
	cfg ServerConfig,
	auditLogger AuditLogger,
	onShutdown ...func(),
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	meta := map[string]any{"port": cfg.Port}

	auditLogger.Log(ctx, AuditLog{Action: "SERVER_START", Message: "leave api accepting requests", Meta: meta})

	err := serveUntil(ctx, server, zap.L().Named("http.server"))

	auditLogger.Log(context.Background(), AuditLog{Action: "SERVER_SHUTDOWN", Message: "leave api stopped", Meta: meta})
	if err != nil {
		zap.L().Error("http server exited with error", zap.Error(err))
	}

	for _, fn := range onShutdown {
		fn()
	}
}

// ServeMetrics exposes the default Prometheus registry on addr until ctx is
// done. It is a no-op for an empty addr.
func ServeMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := serveUntil(ctx, server, zap.L().Named("metrics.server")); err != nil {
			zap.L().Error("metrics server exited with error", zap.Error(err))
		}
	}()
}

// serveUntil blocks until ctx is cancelled or the listener fails, and shuts
// the server down gracefully in the first case.
func serveUntil(ctx context.Context, server *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", server.Addr, err)
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server exited gracefully")
	return nil
}
