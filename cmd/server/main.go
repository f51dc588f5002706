package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"refdatasync/internal/bootstrap"
	"refdatasync/internal/config"
	infrahttp "refdatasync/internal/interfaces/http"
	"refdatasync/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("REFDATA_CONFIG"))
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	rt := bootstrap.New(ctx, cfg, logger)
	defer rt.Close()

	handler := infrahttp.NewHandler(rt.Service, rt.Registry, rt.Reports, logger)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
