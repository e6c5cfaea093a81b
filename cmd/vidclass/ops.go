package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vidclass/internal/config"
	chiTransport "github.com/kailas-cloud/vidclass/internal/transport/chi"
)

// opsServer exposes /healthz and /metrics while a command runs.
type opsServer struct {
	srv    *http.Server
	logger *zap.Logger
}

func startOpsServer(cfg config.OpsConfig, health chiTransport.HealthReporter, logger *zap.Logger) *opsServer {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chiTransport.NewServer(health, logger).Router(cfg.APIKeys),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting ops server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server error", zap.Error(err))
		}
	}()
	return &opsServer{srv: srv, logger: logger}
}

func (o *opsServer) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := o.srv.Shutdown(ctx); err != nil {
		o.logger.Error("Error during ops server shutdown", zap.Error(err))
		return
	}
	o.logger.Info("Ops server stopped gracefully")
}
